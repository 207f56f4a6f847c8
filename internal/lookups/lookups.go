package lookups

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/protrace/internal/runs"
	"github.com/JaimeStill/protrace/internal/workflow"
	"github.com/JaimeStill/protrace/pkg/events"
)

type lookups struct {
	rt       *workflow.Runtime
	journal  runs.System
	events   events.System
	maxBatch int
	logger   *slog.Logger
}

// New creates a lookup system. The workflow runtime is shared across
// requests; journal and publisher may be their disabled variants.
func New(
	rt *workflow.Runtime,
	journal runs.System,
	publisher events.System,
	maxBatch int,
	logger *slog.Logger,
) System {
	return &lookups{
		rt:       rt,
		journal:  journal,
		events:   publisher,
		maxBatch: maxBatch,
		logger:   logger.With("system", "lookups"),
	}
}

func (l *lookups) Handler() *Handler {
	return NewHandler(l, l.logger)
}

func (l *lookups) Lookup(ctx context.Context, req workflow.Request) (*workflow.Result, error) {
	if err := req.Validate(l.maxBatch); err != nil {
		return nil, err
	}
	req.RunID = uuid.New()

	result, err := workflow.Execute(ctx, l.rt, req)
	l.record(ctx, req, result, err)
	if err != nil {
		return nil, err
	}

	l.publish(ctx, req, result)
	return result, nil
}

func (l *lookups) record(ctx context.Context, req workflow.Request, result *workflow.Result, runErr error) {
	cmd := runs.RecordCommand{
		ID:       req.RunID,
		Mode:     string(req.Mode),
		PROCount: len(req.PROs),
	}
	if req.OverrideRequested() {
		cmd.StageCode = req.Override.StageCode
	}
	if result != nil {
		cmd.TargetStatus = result.TargetStatus
		cmd.Results = result.Results
	}
	if runErr != nil {
		cmd.Error = runErr.Error()
	}

	if err := l.journal.Record(context.WithoutCancel(ctx), cmd); err != nil {
		l.logger.Warn("run journal write failed", "run_id", req.RunID, "error", err)
	}
}

func (l *lookups) publish(ctx context.Context, req workflow.Request, result *workflow.Result) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range overrideEvents(req, result, time.Now().UTC()) {
		if err := l.events.Publish(ctx, ev.routingKey(), ev); err != nil {
			l.logger.Warn("override event publish failed",
				"run_id", ev.RunID,
				"pro", ev.PRO,
				"error", err,
			)
		}
	}
}
