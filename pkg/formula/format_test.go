package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name        string
		value       models.Value
		displayType models.RelationshipOutputType
		expected    string
	}{
		{
			name:        "null is N/A",
			value:       models.Null(),
			displayType: models.OutputNumber,
			expected:    "N/A",
		},
		{
			name:        "NaN is Invalid",
			value:       models.Number(math.NaN()),
			displayType: models.OutputNumber,
			expected:    "Invalid",
		},
		{
			name:        "positive infinity",
			value:       models.Number(math.Inf(1)),
			displayType: models.OutputCurrency,
			expected:    "Infinity",
		},
		{
			name:        "negative infinity",
			value:       models.Number(math.Inf(-1)),
			displayType: models.OutputNumber,
			expected:    "Infinity",
		},
		{
			name:        "currency formats two decimals with symbol",
			value:       models.Number(1234.5),
			displayType: models.OutputCurrency,
			expected:    "$1,234.50",
		},
		{
			name:        "percent multiplies by 100 with one decimal",
			value:       models.Number(0.1234),
			displayType: models.OutputPercent,
			expected:    "12.3%",
		},
		{
			name:        "plain number uses grouping",
			value:       models.Number(1234567.5),
			displayType: models.OutputNumber,
			expected:    "1,234,567.5",
		},
		{
			name:        "string passes through",
			value:       models.String("escalated"),
			displayType: models.OutputNumber,
			expected:    "escalated",
		},
		{
			name:        "boolean renders as text",
			value:       models.Boolean(true),
			displayType: "",
			expected:    "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatResult(tt.value, tt.displayType))
		})
	}
}
