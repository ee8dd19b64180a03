package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PortfolioRun struct {
	ID        uuid.UUID
	ObjectKey string
	Status    string
	Answers   json.RawMessage
	Result    sql.Null[json.RawMessage]
	Error     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}
