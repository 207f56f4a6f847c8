package runs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/protrace/pkg/pagination"
)

// System defines the public contract for the run journal.
type System interface {
	Handler() *Handler

	Record(ctx context.Context, cmd RecordCommand) error

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Run], error)

	Find(ctx context.Context, id uuid.UUID) (*Run, error)
}

type disabled struct {
	logger     *slog.Logger
	pagination pagination.Config
}

// Disabled returns a System that discards records and answers reads with ErrDisabled.
func Disabled(logger *slog.Logger, pagination pagination.Config) System {
	return &disabled{
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (d *disabled) Handler() *Handler {
	return NewHandler(d, d.logger, d.pagination)
}

func (d *disabled) Record(context.Context, RecordCommand) error {
	return nil
}

func (d *disabled) List(context.Context, pagination.PageRequest, Filters) (*pagination.PageResult[Run], error) {
	return nil, ErrDisabled
}

func (d *disabled) Find(context.Context, uuid.UUID) (*Run, error) {
	return nil, ErrDisabled
}
