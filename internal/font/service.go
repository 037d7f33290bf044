package font

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/glyphedit/glyphedit/internal/outline"
	"github.com/glyphedit/glyphedit/internal/store"
	"github.com/glyphedit/glyphedit/internal/typeid"
)

var (
	ErrNotFound     = errors.New("font not found")
	ErrForbidden    = errors.New("forbidden")
	ErrNotMember    = errors.New("not a font member")
	ErrUserNotFound = errors.New("user not found")
	ErrRemoveOwner  = errors.New("cannot remove font owner")
)

// ImportError reports uploaded data that is not a usable font.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string { return e.Err.Error() }
func (e *ImportError) Unwrap() error { return e.Err }

// PlaygroundFontID is the shared sample font anyone may edit. It lives
// only in memory and is never persisted.
const PlaygroundFontID = "font_playground"

// Queries is the part of the store the font service needs.
type Queries interface {
	CreateFont(ctx context.Context, arg store.CreateFontParams) (store.Font, error)
	GetFont(ctx context.Context, id string) (store.Font, error)
	ListFontsForUser(ctx context.Context, userID string) ([]store.Font, error)
	TouchFont(ctx context.Context, id string) error
	DeleteFont(ctx context.Context, id string) error

	AddFontMember(ctx context.Context, arg store.AddFontMemberParams) error
	GetFontMember(ctx context.Context, arg store.GetFontMemberParams) (store.FontMember, error)
	ListFontMembers(ctx context.Context, fontID string) ([]store.ListFontMembersRow, error)
	RemoveFontMember(ctx context.Context, arg store.RemoveFontMemberParams) error

	CreateSnapshot(ctx context.Context, arg store.CreateSnapshotParams) (store.FontSnapshot, error)
	GetLatestSnapshot(ctx context.Context, fontID string) (store.FontSnapshot, error)

	GetUserByEmail(ctx context.Context, email string) (store.User, error)
}

type Service struct {
	queries Queries
}

func NewService(queries Queries) *Service {
	return &Service{queries: queries}
}

type Font struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerID    string `json:"ownerId"`
	UnitsPerEm int    `json:"unitsPerEm"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Create starts a font from the bundled sample glyphs.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Font, error) {
	fontID := typeid.NewFontID()
	doc, err := outline.NewSampleFont(fontID)
	if err != nil {
		return nil, err
	}
	doc.Name = name
	return s.create(ctx, doc, ownerID)
}

// Import creates a font from uploaded TrueType or OpenType data. An empty
// name keeps the family name found in the file.
func (s *Service) Import(ctx context.Context, name, ownerID string, data []byte) (*Font, error) {
	doc, err := outline.ImportSFNT(typeid.NewFontID(), data, nil)
	if err != nil {
		return nil, &ImportError{Err: err}
	}
	if name != "" {
		doc.Name = name
	}
	return s.create(ctx, doc, ownerID)
}

func (s *Service) create(ctx context.Context, doc *outline.Font, ownerID string) (*Font, error) {
	dbFont, err := s.queries.CreateFont(ctx, store.CreateFontParams{
		ID:         doc.ID,
		Name:       doc.Name,
		OwnerID:    ownerID,
		UnitsPerEm: int32(doc.UnitsPerEm),
	})
	if err != nil {
		return nil, fmt.Errorf("create font: %w", err)
	}

	// Add owner as member
	err = s.queries.AddFontMember(ctx, store.AddFontMemberParams{
		FontID: doc.ID,
		UserID: ownerID,
		Role:   store.FontRoleOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	if err := s.snapshot(ctx, doc.ID, doc, 1); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbFontToFont(dbFont), nil
}

func (s *Service) snapshot(ctx context.Context, fontID string, doc *outline.Font, version int32) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal font: %w", err)
	}
	_, err = s.queries.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:       typeid.NewSnapshotID(),
		FontID:   fontID,
		Version:  version,
		Document: docJSON,
	})
	return err
}

func (s *Service) Get(ctx context.Context, fontID, userID string) (*Font, error) {
	if err := s.CheckMembership(ctx, fontID, userID); err != nil {
		return nil, err
	}

	dbFont, err := s.queries.GetFont(ctx, fontID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get font: %w", err)
	}

	return dbFontToFont(dbFont), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Font, error) {
	dbFonts, err := s.queries.ListFontsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list fonts: %w", err)
	}

	fonts := make([]Font, len(dbFonts))
	for i, f := range dbFonts {
		fonts[i] = *dbFontToFont(f)
	}

	return fonts, nil
}

func (s *Service) Delete(ctx context.Context, fontID, userID string) error {
	if _, err := s.requireOwner(ctx, fontID, userID); err != nil {
		return err
	}
	return s.queries.DeleteFont(ctx, fontID)
}

func (s *Service) InviteByEmail(ctx context.Context, fontID, ownerID, inviteeEmail string) error {
	if _, err := s.requireOwner(ctx, fontID, ownerID); err != nil {
		return err
	}

	invitee, err := s.queries.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.queries.AddFontMember(ctx, store.AddFontMemberParams{
		FontID: fontID,
		UserID: invitee.ID,
		Role:   store.FontRoleEditor,
	})
}

func (s *Service) ListMembers(ctx context.Context, fontID, userID string) ([]Member, error) {
	if err := s.CheckMembership(ctx, fontID, userID); err != nil {
		return nil, err
	}

	dbMembers, err := s.queries.ListFontMembers(ctx, fontID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(dbMembers))
	for i, m := range dbMembers {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        string(m.Role),
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}

	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, fontID, ownerID, targetUserID string) error {
	if _, err := s.requireOwner(ctx, fontID, ownerID); err != nil {
		return err
	}

	if targetUserID == ownerID {
		return ErrRemoveOwner
	}

	return s.queries.RemoveFontMember(ctx, store.RemoveFontMemberParams{
		FontID: fontID,
		UserID: targetUserID,
	})
}

func (s *Service) GetLatestSnapshot(ctx context.Context, fontID, userID string) (json.RawMessage, error) {
	if err := s.CheckMembership(ctx, fontID, userID); err != nil {
		return nil, err
	}

	snap, err := s.queries.GetLatestSnapshot(ctx, fontID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return snap.Document, nil
}

// CheckMembership returns ErrNotMember unless userID may edit fontID.
func (s *Service) CheckMembership(ctx context.Context, fontID, userID string) error {
	_, err := s.queries.GetFontMember(ctx, store.GetFontMemberParams{
		FontID: fontID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

// LoadFont reads the latest snapshot of a font for a collaboration room.
func (s *Service) LoadFont(ctx context.Context, fontID string) (*outline.Font, error) {
	if fontID == PlaygroundFontID {
		return outline.NewSampleFont(PlaygroundFontID)
	}

	snap, err := s.queries.GetLatestSnapshot(ctx, fontID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	doc, err := outline.Parse(snap.Document)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	doc.ID = fontID
	return doc, nil
}

// SaveFont stores doc as the next snapshot version.
func (s *Service) SaveFont(ctx context.Context, fontID string, doc *outline.Font) error {
	if fontID == PlaygroundFontID {
		return nil
	}

	nextVersion := int32(1)
	current, err := s.queries.GetLatestSnapshot(ctx, fontID)
	switch {
	case err == nil:
		nextVersion = current.Version + 1
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("get snapshot: %w", err)
	}

	if err := s.snapshot(ctx, fontID, doc, nextVersion); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := s.queries.TouchFont(ctx, fontID); err != nil {
		return fmt.Errorf("touch font: %w", err)
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, fontID, userID string) (store.Font, error) {
	dbFont, err := s.queries.GetFont(ctx, fontID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Font{}, ErrNotFound
		}
		return store.Font{}, fmt.Errorf("get font: %w", err)
	}
	if dbFont.OwnerID != userID {
		return store.Font{}, ErrForbidden
	}
	return dbFont, nil
}

func dbFontToFont(f store.Font) *Font {
	return &Font{
		ID:         f.ID,
		Name:       f.Name,
		OwnerID:    f.OwnerID,
		UnitsPerEm: int(f.UnitsPerEm),
		CreatedAt:  f.CreatedAt.Time.Format(time.RFC3339),
		UpdatedAt:  f.UpdatedAt.Time.Format(time.RFC3339),
	}
}
