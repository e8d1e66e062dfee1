package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"langbench/internal/model"
)

// MinField2 is the exclusive lower bound applied to data.field2.
const MinField2 = 995

const highRecordsSQL = `SELECT field1, field2 FROM data WHERE field2 > $1`

// Querier is the part of *pgxpool.Pool the handlers need.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HighRecords returns every row whose field2 exceeds MinField2.
// The slice is never nil on success.
func HighRecords(ctx context.Context, q Querier) ([]model.Record, error) {
	rows, err := q.Query(ctx, highRecordsSQL, MinField2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Record{}
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.Field1, &r.Field2); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
