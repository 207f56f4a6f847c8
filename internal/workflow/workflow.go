package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/protrace/internal/tms"
)

// Execute runs the workflow for req. Only AUTH and TRACE1 failures are
// returned as errors; override failures are recorded per item and a TRACE2
// failure is reported through Result.VerifyError.
func Execute(ctx context.Context, rt *Runtime, req Request) (*Result, error) {
	if req.RunID == uuid.Nil {
		req.RunID = uuid.New()
	}

	r := &run{
		rt:     rt,
		req:    req,
		logger: rt.Logger.With("run_id", req.RunID, "mode", req.Mode),
		result: &Result{RunID: req.RunID},
		debug:  &Debug{},
	}

	for phase := PhaseAuth; phase != PhaseDone; {
		start := time.Now()
		next, err := r.step(ctx, phase)
		r.debug.Phases = append(r.debug.Phases, newPhaseTiming(phase, time.Since(start)))
		if err != nil {
			r.logger.Error("workflow failed", "phase", phase, "error", err)
			return nil, err
		}
		phase = next
	}

	if rt.Debug {
		r.result.Debug = r.debug
	}
	r.logSummary()
	return r.result, nil
}

// run is the mutable state of one execution. records and found run
// parallel to result.Results.
type run struct {
	rt     *Runtime
	req    Request
	logger *slog.Logger

	sess    *tms.Session
	records []tms.Record
	found   []bool
	target  string

	result *Result
	debug  *Debug
}

func (r *run) step(ctx context.Context, phase Phase) (Phase, error) {
	switch phase {
	case PhaseAuth:
		return r.authenticate(ctx)
	case PhaseTrace1:
		return r.trace(ctx)
	case PhaseOverride:
		return r.override(ctx)
	case PhaseTrace2:
		return r.verify(ctx)
	}
	return PhaseDone, fmt.Errorf("unknown phase %q", phase)
}

func (r *run) authenticate(ctx context.Context) (Phase, error) {
	sess, err := r.rt.TMS.Authenticate(ctx)
	r.debug.UpstreamCalls++
	if err != nil {
		return PhaseDone, fmt.Errorf("authenticate: %w", err)
	}

	if sess.GroupSwitched {
		r.debug.UpstreamCalls++
	}
	if sess.GroupSwitchErr != nil {
		r.debug.GroupSwitchError = sess.GroupSwitchErr.Error()
	}

	r.sess = sess
	return PhaseTrace1, nil
}

func (r *run) trace(ctx context.Context) (Phase, error) {
	table, err := r.rt.TMS.Trace(ctx, r.sess, r.req.PROs)
	r.debug.UpstreamCalls += r.traceCalls()
	if err != nil {
		return PhaseDone, fmt.Errorf("trace: %w", err)
	}
	r.debug.Trace1Rows = len(table)

	n := len(r.req.PROs)
	r.records = make([]tms.Record, n)
	r.found = make([]bool, n)
	r.result.Results = make([]ResultItem, n)

	for i, raw := range r.req.PROs {
		pro := tms.NormalizePRO(raw)
		rec, ok := table[pro]
		if !ok {
			r.result.Results[i] = ResultItem{
				PRO:             pro,
				Status:          StatusNotFound,
				OverrideSkipped: true,
			}
			continue
		}

		r.records[i] = rec
		r.found[i] = true
		r.result.Results[i] = ResultItem{
			PRO:             pro,
			Status:          rec.Stage,
			Substatus:       rec.Substatus,
			OrderID:         rec.OrderID,
			Location:        rec.Location,
			Pickup:          rec.Pickup,
			OverrideSkipped: true,
		}
	}

	if !r.req.OverrideRequested() {
		return PhaseDone, nil
	}
	return PhaseOverride, nil
}

func (r *run) override(ctx context.Context) (Phase, error) {
	oreq := r.req.overrideRequest()
	r.target = r.rt.TMS.Stages().Resolve(oreq)
	r.result.TargetStatus = r.target

	var targets []int
	for i, item := range r.result.Results {
		if r.found[i] && item.Status != StatusNotFound && item.OrderID != "" {
			targets = append(targets, i)
		}
	}

	apply := func(i int) {
		out := r.rt.TMS.Override(ctx, r.sess, r.records[i], oreq)
		item := &r.result.Results[i]
		item.OverrideOK = out.OK
		item.OverrideSkipped = out.Skipped
		item.OverrideError = out.Error
	}

	// Above 1, goroutines launch in input order but upstream requests may
	// be issued in any order.
	if limit := r.rt.OverrideConcurrency; limit > 1 {
		var g errgroup.Group
		g.SetLimit(limit)
		for _, i := range targets {
			g.Go(func() error {
				apply(i)
				return nil
			})
		}
		g.Wait()
	} else {
		for _, i := range targets {
			apply(i)
		}
	}

	for _, i := range targets {
		if !r.result.Results[i].OverrideSkipped {
			r.debug.Overrides++
		}
	}
	r.debug.UpstreamCalls += r.debug.Overrides
	return PhaseTrace2, nil
}

func (r *run) verify(ctx context.Context) (Phase, error) {
	table, err := r.rt.TMS.Trace(ctx, r.sess, r.req.PROs)
	r.debug.UpstreamCalls += r.traceCalls()
	if err != nil {
		r.logger.Warn("verification trace failed", "error", err)
		r.result.VerifyError = err.Error()
		return PhaseDone, nil
	}
	r.debug.Trace2Rows = len(table)

	for i := range r.result.Results {
		item := &r.result.Results[i]
		rec, ok := table[item.PRO]
		if !ok {
			continue
		}
		item.VerifiedStatus = rec.Stage
		item.VerifiedSubstatus = rec.Substatus
		item.Verified = strings.TrimSpace(rec.Stage) == r.target
	}
	return PhaseDone, nil
}

// traceCalls is the number of upstream requests one Trace makes: none when
// every PRO is blank.
func (r *run) traceCalls() int {
	for _, p := range r.req.PROs {
		if tms.NormalizePRO(p) != "" {
			return 1
		}
	}
	return 0
}

func (r *run) logSummary() {
	var found, ok, failed, verified int
	for i, item := range r.result.Results {
		if r.found[i] {
			found++
		}
		if item.OverrideOK {
			ok++
		} else if item.OverrideError != "" {
			failed++
		}
		if item.Verified {
			verified++
		}
	}

	r.logger.Info("workflow complete",
		"pros", len(r.result.Results),
		"found", found,
		"override_ok", ok,
		"override_failed", failed,
		"verified", verified,
	)
}
