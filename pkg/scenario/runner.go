package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"kcoord/pkg/coord"
	coorderr "kcoord/pkg/error"
	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// StepResult records one executed step.
type StepResult struct {
	Index   int
	Op      string
	At      uint64
	Result  string
	Expect  string
	Checked bool
	Passed  bool
}

// Report is the outcome of one scenario run.
type Report struct {
	ID       uuid.UUID
	Name     string
	Steps    []StepResult
	Failures int
	Snapshot coord.Snapshot
}

// Passed reports whether every checked step matched its expectation.
func (r *Report) Passed() bool { return r.Failures == 0 }

// Runner replays scenarios against a Coordinator.
type Runner struct {
	coord  *coord.Coordinator
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger uses the global logger.
func NewRunner(c *coord.Coordinator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Runner{coord: c, logger: logger}
}

// Run executes every step in order. Failed expectations do not stop the
// run; they are counted and reported as a SCENARIO_EXPECTATION error after
// the last step. Malformed step arguments abort the run.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Report, error) {
	report := &Report{ID: uuid.New(), Name: s.Name}
	log := r.logger.With("run_id", report.ID.String(), "scenario", s.Name)
	log.Debug("scenario started", "steps", len(s.Steps))

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		h, ok := handlers[st.Op]
		if !ok {
			return report, coorderr.Newf(coorderr.ErrCategoryUser, coorderr.CodeScenarioUnknownOp,
				"step %d: unknown op %q", i+1, st.Op)
		}

		var result any
		var err error
		r.coord.Do(func(m coord.Managers) {
			result, err = h(m, st, primitives.Tick(st.At))
		})
		if err != nil {
			return report, coorderr.Newf(coorderr.ErrCategoryUser, coorderr.CodeScenarioParse,
				"step %d (%s): %v", i+1, st.Op, err)
		}

		sr := StepResult{Index: i + 1, Op: st.Op, At: st.At, Result: fmt.Sprint(result)}
		if st.Expect != nil {
			sr.Checked = true
			sr.Expect = fmt.Sprint(st.Expect)
			sr.Passed = sr.Expect == sr.Result
			if !sr.Passed {
				report.Failures++
				log.Warn("expectation failed", "step", sr.Index, "op", st.Op,
					"want", sr.Expect, "got", sr.Result)
			}
		}
		report.Steps = append(report.Steps, sr)
	}

	report.Snapshot = r.coord.Snapshot()
	log.Debug("scenario finished", "failures", report.Failures)

	if report.Failures > 0 {
		return report, coorderr.Newf(coorderr.ErrCategoryUser, coorderr.CodeScenarioExpectation,
			"%s: %d of %d steps did not match", s.Name, report.Failures, len(s.Steps))
	}
	return report, nil
}
