package store

import "context"

const addFontMember = `INSERT INTO font_members (font_id, user_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (font_id, user_id) DO UPDATE SET role = EXCLUDED.role`

type AddFontMemberParams struct {
	FontID string
	UserID string
	Role   FontRole
}

func (q *Queries) AddFontMember(ctx context.Context, arg AddFontMemberParams) error {
	_, err := q.db.Exec(ctx, addFontMember, arg.FontID, arg.UserID, arg.Role)
	return err
}

const getFontMember = `SELECT font_id, user_id, role, created_at
FROM font_members WHERE font_id = $1 AND user_id = $2`

type GetFontMemberParams struct {
	FontID string
	UserID string
}

func (q *Queries) GetFontMember(ctx context.Context, arg GetFontMemberParams) (FontMember, error) {
	row := q.db.QueryRow(ctx, getFontMember, arg.FontID, arg.UserID)
	var i FontMember
	err := row.Scan(&i.FontID, &i.UserID, &i.Role, &i.CreatedAt)
	return i, err
}

const listFontMembers = `SELECT m.user_id, m.role, u.display_name, u.email
FROM font_members m
JOIN users u ON u.id = m.user_id
WHERE m.font_id = $1
ORDER BY m.created_at`

type ListFontMembersRow struct {
	UserID      string
	Role        FontRole
	DisplayName string
	Email       string
}

func (q *Queries) ListFontMembers(ctx context.Context, fontID string) ([]ListFontMembersRow, error) {
	rows, err := q.db.Query(ctx, listFontMembers, fontID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListFontMembersRow
	for rows.Next() {
		var i ListFontMembersRow
		if err := rows.Scan(&i.UserID, &i.Role, &i.DisplayName, &i.Email); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const removeFontMember = `DELETE FROM font_members WHERE font_id = $1 AND user_id = $2`

type RemoveFontMemberParams struct {
	FontID string
	UserID string
}

func (q *Queries) RemoveFontMember(ctx context.Context, arg RemoveFontMemberParams) error {
	_, err := q.db.Exec(ctx, removeFontMember, arg.FontID, arg.UserID)
	return err
}
