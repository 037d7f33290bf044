package store

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type FontRole string

const (
	FontRoleOwner  FontRole = "owner"
	FontRoleEditor FontRole = "editor"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   pgtype.Timestamptz
}

type Font struct {
	ID         string
	Name       string
	OwnerID    string
	UnitsPerEm int32
	CreatedAt  pgtype.Timestamptz
	UpdatedAt  pgtype.Timestamptz
}

type FontMember struct {
	FontID    string
	UserID    string
	Role      FontRole
	CreatedAt pgtype.Timestamptz
}

type FontSnapshot struct {
	ID        string
	FontID    string
	Version   int32
	Document  []byte
	CreatedAt pgtype.Timestamptz
}
