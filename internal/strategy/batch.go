package strategy

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"PortfolioSentinel/internal/model"
)

// ErrEvaluationPanic wraps a panic recovered while evaluating one ticker.
var ErrEvaluationPanic = errors.New("evaluation panicked")

// Result is the per-ticker outcome of a batch: a verdict or an error, never both.
type Result struct {
	Ticker  string
	Verdict *model.Verdict
	Err     error
}

// EvaluateBatch evaluates inputs concurrently. Every input sees the same alert
// snapshot, and a failure for one ticker never affects the others. Results are
// returned in input order.
func (e *Engine) EvaluateBatch(inputs []Input, alert *model.MarketAlert) []Result {
	results := make([]Result, len(inputs))

	var snapshot *model.MarketAlert
	if alert != nil {
		a := *alert
		snapshot = &a
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := range inputs {
		in := inputs[i]
		in.Alert = snapshot
		g.Go(func() error {
			results[i] = e.safeEvaluate(in)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) safeEvaluate(in Input) (res Result) {
	res.Ticker = in.Security.Ticker
	defer func() {
		if r := recover(); r != nil {
			res.Verdict = nil
			res.Err = fmt.Errorf("%s: %w: %v", in.Security.Ticker, ErrEvaluationPanic, r)
		}
	}()
	res.Verdict, res.Err = e.Evaluate(in)
	return res
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
