package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

const createRun = `-- name: CreateRun :one
INSERT INTO portfolio_runs (
id, object_key, answers, status)
VALUES ( $1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET
    object_key = EXCLUDED.object_key,
    answers = EXCLUDED.answers,
    status = EXCLUDED.status,
    error = NULL,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, object_key, status, answers, result, error, created_at, updated_at
`

type CreateRunParams struct {
	ID        uuid.UUID
	ObjectKey string
	Answers   json.RawMessage
	Status    string
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (PortfolioRun, error) {
	row := q.db.QueryRowContext(ctx, createRun,
		arg.ID,
		arg.ObjectKey,
		arg.Answers,
		arg.Status,
	)
	var i PortfolioRun
	err := row.Scan(
		&i.ID,
		&i.ObjectKey,
		&i.Status,
		&i.Answers,
		&i.Result,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getRun = `-- name: GetRun :one
SELECT id, object_key, status, answers, result, error, created_at, updated_at FROM portfolio_runs WHERE id=$1
`

func (q *Queries) GetRun(ctx context.Context, id uuid.UUID) (PortfolioRun, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i PortfolioRun
	err := row.Scan(
		&i.ID,
		&i.ObjectKey,
		&i.Status,
		&i.Answers,
		&i.Result,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateRunStatus = `-- name: UpdateRunStatus :exec
UPDATE portfolio_runs
SET status=$1, error=$2, updated_at=CURRENT_TIMESTAMP
WHERE id=$3
`

type UpdateRunStatusParams struct {
	Status string
	Error  sql.NullString
	ID     uuid.UUID
}

func (q *Queries) UpdateRunStatus(ctx context.Context, arg UpdateRunStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateRunStatus, arg.Status, arg.Error, arg.ID)
	return err
}

const saveRunResult = `-- name: SaveRunResult :exec
UPDATE portfolio_runs
SET result=$1, updated_at=CURRENT_TIMESTAMP
WHERE id=$2
`

type SaveRunResultParams struct {
	Result json.RawMessage
	ID     uuid.UUID
}

func (q *Queries) SaveRunResult(ctx context.Context, arg SaveRunResultParams) error {
	_, err := q.db.ExecContext(ctx, saveRunResult, arg.Result, arg.ID)
	return err
}
