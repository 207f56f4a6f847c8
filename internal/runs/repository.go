package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/protrace/pkg/pagination"
	"github.com/JaimeStill/protrace/pkg/query"
	"github.com/JaimeStill/protrace/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) error {
	if cmd.ID == uuid.Nil {
		cmd.ID = uuid.New()
	}

	results := []byte("[]")
	if cmd.Results != nil {
		data, err := json.Marshal(cmd.Results)
		if err != nil {
			return fmt.Errorf("encode run results: %w", err)
		}
		results = data
	}

	q := `
		INSERT INTO runs(id, mode, pro_count, stage_code, target_status, results, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if err := repository.Exec(
		ctx, r.db, q,
		cmd.ID,
		cmd.Mode,
		cmd.PROCount,
		cmd.StageCode,
		cmd.TargetStatus,
		string(results),
		cmd.Error,
	); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run recorded", "id", cmd.ID, "mode", cmd.Mode, "pros", cmd.PROCount)
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := filters.Apply(query.NewBuilder(projection, defaultSort))

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}
