package store

import "context"

const createFont = `INSERT INTO fonts (id, name, owner_id, units_per_em)
VALUES ($1, $2, $3, $4)
RETURNING id, name, owner_id, units_per_em, created_at, updated_at`

type CreateFontParams struct {
	ID         string
	Name       string
	OwnerID    string
	UnitsPerEm int32
}

func (q *Queries) CreateFont(ctx context.Context, arg CreateFontParams) (Font, error) {
	row := q.db.QueryRow(ctx, createFont, arg.ID, arg.Name, arg.OwnerID, arg.UnitsPerEm)
	var i Font
	err := row.Scan(&i.ID, &i.Name, &i.OwnerID, &i.UnitsPerEm, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getFont = `SELECT id, name, owner_id, units_per_em, created_at, updated_at
FROM fonts WHERE id = $1`

func (q *Queries) GetFont(ctx context.Context, id string) (Font, error) {
	row := q.db.QueryRow(ctx, getFont, id)
	var i Font
	err := row.Scan(&i.ID, &i.Name, &i.OwnerID, &i.UnitsPerEm, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listFontsForUser = `SELECT f.id, f.name, f.owner_id, f.units_per_em, f.created_at, f.updated_at
FROM fonts f
JOIN font_members m ON m.font_id = f.id
WHERE m.user_id = $1
ORDER BY f.updated_at DESC`

func (q *Queries) ListFontsForUser(ctx context.Context, userID string) ([]Font, error) {
	rows, err := q.db.Query(ctx, listFontsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Font
	for rows.Next() {
		var i Font
		if err := rows.Scan(&i.ID, &i.Name, &i.OwnerID, &i.UnitsPerEm, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const touchFont = `UPDATE fonts SET updated_at = now() WHERE id = $1`

func (q *Queries) TouchFont(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, touchFont, id)
	return err
}

const deleteFont = `DELETE FROM fonts WHERE id = $1`

func (q *Queries) DeleteFont(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteFont, id)
	return err
}
