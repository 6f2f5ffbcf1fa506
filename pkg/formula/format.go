package formula

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

// FormatResult renders a raw formula result for display. This is pure
// presentation: it never validates, and it accepts whatever value the
// caller holds, including the non-finite numbers Evaluate refuses to
// return (analytics surfaces compute aggregates of their own).
func FormatResult(v models.Value, displayType models.RelationshipOutputType) string {
	if v.IsNull() {
		return "N/A"
	}

	if v.Kind == models.KindNumber {
		if math.IsNaN(v.Num) {
			return "Invalid"
		}
		if math.IsInf(v.Num, 0) {
			return "Infinity"
		}
		switch displayType {
		case models.OutputCurrency:
			return "$" + humanize.FormatFloat("#,###.##", v.Num)
		case models.OutputPercent:
			return humanize.FormatFloat("#,###.#", v.Num*100) + "%"
		default:
			return humanize.Commaf(v.Num)
		}
	}

	return v.Display()
}
