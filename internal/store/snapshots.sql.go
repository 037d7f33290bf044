package store

import "context"

const createSnapshot = `INSERT INTO font_snapshots (id, font_id, version, document)
VALUES ($1, $2, $3, $4)
RETURNING id, font_id, version, document, created_at`

type CreateSnapshotParams struct {
	ID       string
	FontID   string
	Version  int32
	Document []byte
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (FontSnapshot, error) {
	row := q.db.QueryRow(ctx, createSnapshot, arg.ID, arg.FontID, arg.Version, arg.Document)
	var i FontSnapshot
	err := row.Scan(&i.ID, &i.FontID, &i.Version, &i.Document, &i.CreatedAt)
	return i, err
}

const getLatestSnapshot = `SELECT id, font_id, version, document, created_at
FROM font_snapshots WHERE font_id = $1
ORDER BY version DESC
LIMIT 1`

func (q *Queries) GetLatestSnapshot(ctx context.Context, fontID string) (FontSnapshot, error) {
	row := q.db.QueryRow(ctx, getLatestSnapshot, fontID)
	var i FontSnapshot
	err := row.Scan(&i.ID, &i.FontID, &i.Version, &i.Document, &i.CreatedAt)
	return i, err
}
