// Package formula evaluates user-authored expressions against a metadata
// record. Exactly two names are in scope inside a formula: "metadata"
// (the record) and "math" (a namespace of math operations). Nothing else
// from the host program is reachable; a reference to any other name is a
// compile-time failure.
package formula

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/logging"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

// Result is the outcome of evaluating one formula in a batch.
type Result struct {
	Value models.Value
	Err   error
}

// Evaluator evaluates formula sources against metadata records.
// Evaluation is deterministic and side-effect-free: the same source and
// metadata always produce the same result, and a failing formula never
// affects any other evaluation.
type Evaluator interface {
	// Evaluate runs one formula against a metadata record.
	Evaluate(source string, metadata models.Record) (models.Value, error)

	// EvaluateAll applies Evaluate independently to each source.
	// No state is shared between evaluations.
	EvaluateAll(sources []string, metadata models.Record) []Result
}

type evaluator struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator. A positive timeout bounds the
// wall-clock time of a single run; zero disables the guard.
func NewEvaluator(timeout time.Duration, logger *zap.Logger) Evaluator {
	return &evaluator{
		timeout: timeout,
		logger:  logger.Named("formula"),
	}
}

var _ Evaluator = (*evaluator)(nil)

// evalEnv is the complete set of names visible inside a formula.
type evalEnv struct {
	Metadata map[string]any `expr:"metadata"`
	Math     map[string]any `expr:"math"`
}

var returnToken = regexp.MustCompile(`\breturn\b`)

// normalize reduces a formula source to a single expression. Sources
// written as function bodies with an explicit return are reduced to the
// returned expression; bare expressions pass through. A few JavaScript
// spellings authors habitually use (===, !==, trailing semicolons) are
// rewritten to their expression-language equivalents.
func normalize(source string) (string, error) {
	s := strings.TrimSpace(source)
	if s == "" {
		return "", fmt.Errorf("formula is empty")
	}

	if loc := returnToken.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("formula has no expression after return")
	}

	s = strings.ReplaceAll(s, "===", "==")
	s = strings.ReplaceAll(s, "!==", "!=")
	s = strings.ReplaceAll(s, "Math.", "math.")

	return s, nil
}

// Evaluate compiles and runs one formula. All failure modes surface as
// human-readable errors: undefined names, syntax errors, and results
// that are NaN or infinite.
func (e *evaluator) Evaluate(source string, metadata models.Record) (models.Value, error) {
	exprSrc, err := normalize(source)
	if err != nil {
		return models.Null(), err
	}

	program, err := expr.Compile(exprSrc, expr.Env(evalEnv{}))
	if err != nil {
		if strings.Contains(err.Error(), "unknown name") {
			return models.Null(), fmt.Errorf(
				"formula references an undefined name: check that all field names used in the formula exist in the metadata (%v)", err)
		}
		return models.Null(), fmt.Errorf("formula syntax error: %v", err)
	}

	env := evalEnv{Metadata: metadata.Env(), Math: mathNamespace}
	out, err := e.run(program, env)
	if err != nil {
		e.logger.Debug("formula run failed",
			zap.String("formula", logging.SanitizeFormula(source)),
			zap.String("error", err.Error()))
		return models.Null(), fmt.Errorf(
			"formula failed: %v (check that all field names used in the formula exist in the metadata)", err)
	}

	val := models.FromAny(out)
	if val.Kind == models.KindNumber {
		if math.IsNaN(val.Num) {
			return models.Null(), fmt.Errorf("formula produced an invalid number (NaN); check for division by zero")
		}
		if math.IsInf(val.Num, 0) {
			return models.Null(), fmt.Errorf("formula produced an infinite value; check for division by zero")
		}
	}
	return val, nil
}

// run executes a compiled program, optionally bounded by the wall-clock
// guard. A formula that exceeds the budget is abandoned and reported as
// an error; the goroutine finishes on its own since compiled programs
// cannot block.
func (e *evaluator) run(program *vm.Program, env evalEnv) (any, error) {
	if e.timeout <= 0 {
		return expr.Run(program, env)
	}

	type outcome struct {
		out any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := expr.Run(program, env)
		done <- outcome{out: out, err: err}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-time.After(e.timeout):
		return nil, fmt.Errorf("formula evaluation exceeded the %s time budget", e.timeout)
	}
}

// EvaluateAll applies Evaluate independently to each source.
func (e *evaluator) EvaluateAll(sources []string, metadata models.Record) []Result {
	results := make([]Result, len(sources))
	for i, src := range sources {
		val, err := e.Evaluate(src, metadata)
		results[i] = Result{Value: val, Err: err}
	}
	return results
}
