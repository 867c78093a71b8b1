package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// RecordRow mirrors one row of the records table.
type RecordRow struct {
	Seq       int64
	ID        string
	Date      string
	Kind      string
	Amount    sql.NullString
	Category  sql.NullString
	Sender    string
	CreatedAt sql.NullTime
}

const createRecord = `
INSERT INTO records (id, date, kind, amount, category, sender)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING seq
`

type CreateRecordParams struct {
	ID       string
	Date     string
	Kind     string
	Amount   sql.NullString
	Category sql.NullString
	Sender   string
}

func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRecord,
		arg.ID,
		arg.Date,
		arg.Kind,
		arg.Amount,
		arg.Category,
		arg.Sender,
	)
	var seq int64
	err := row.Scan(&seq)
	return seq, err
}

const listRecords = `
SELECT seq, id, date, kind, amount, category, sender, created_at
FROM records
ORDER BY seq
`

func (q *Queries) ListRecords(ctx context.Context) ([]RecordRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecordRow
	for rows.Next() {
		var i RecordRow
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.Date,
			&i.Kind,
			&i.Amount,
			&i.Category,
			&i.Sender,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRecords = `SELECT COUNT(*) FROM records`

func (q *Queries) CountRecords(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRecords)
	var count int64
	err := row.Scan(&count)
	return count, err
}
