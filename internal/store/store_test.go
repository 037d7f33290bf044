package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphedit/glyphedit/internal/typeid"
)

// testQueries connects to TEST_DATABASE_URL inside a transaction that is
// rolled back when the test ends.
func testQueries(t *testing.T) *Queries {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback(context.Background()) })
	return New(pool).WithTx(tx)
}

func TestSchemaIsEmbedded(t *testing.T) {
	for _, table := range []string{"users", "fonts", "font_members", "font_snapshots"} {
		assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestUsersAndFonts(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()

	user, err := q.CreateUser(ctx, CreateUserParams{
		ID:          typeid.NewUserID(),
		Email:       "ann@example.com",
		Password:    "hash",
		DisplayName: "Ann",
	})
	require.NoError(t, err)

	got, err := q.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = q.GetUserByID(ctx, "user_missing")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))

	font, err := q.CreateFont(ctx, CreateFontParams{
		ID:         typeid.NewFontID(),
		Name:       "Sans",
		OwnerID:    user.ID,
		UnitsPerEm: 2048,
	})
	require.NoError(t, err)
	require.NoError(t, q.AddFontMember(ctx, AddFontMemberParams{FontID: font.ID, UserID: user.ID, Role: FontRoleOwner}))

	fonts, err := q.ListFontsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, fonts, 1)
	assert.Equal(t, int32(2048), fonts[0].UnitsPerEm)

	member, err := q.GetFontMember(ctx, GetFontMemberParams{FontID: font.ID, UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, FontRoleOwner, member.Role)

	members, err := q.ListFontMembers(ctx, font.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ann", members[0].DisplayName)
}

func TestLatestSnapshotWins(t *testing.T) {
	q := testQueries(t)
	ctx := context.Background()

	user, err := q.CreateUser(ctx, CreateUserParams{ID: typeid.NewUserID(), Email: "bo@example.com", Password: "hash", DisplayName: "Bo"})
	require.NoError(t, err)
	font, err := q.CreateFont(ctx, CreateFontParams{ID: typeid.NewFontID(), Name: "Serif", OwnerID: user.ID, UnitsPerEm: 1000})
	require.NoError(t, err)

	_, err = q.GetLatestSnapshot(ctx, font.ID)
	assert.True(t, errors.Is(err, pgx.ErrNoRows))

	for v := int32(1); v <= 2; v++ {
		_, err := q.CreateSnapshot(ctx, CreateSnapshotParams{
			ID:       typeid.NewSnapshotID(),
			FontID:   font.ID,
			Version:  v,
			Document: []byte(`{"version":` + string('0'+rune(v)) + `}`),
		})
		require.NoError(t, err)
	}

	snap, err := q.GetLatestSnapshot(ctx, font.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), snap.Version)
	assert.JSONEq(t, `{"version":2}`, string(snap.Document))

	require.NoError(t, q.DeleteFont(ctx, font.ID))
	_, err = q.GetFont(ctx, font.ID)
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}
