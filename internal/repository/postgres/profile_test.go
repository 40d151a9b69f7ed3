package postgres

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_FindByIDs_OmitsUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewProfileRepository(mock)

	ids := []string{"alice", "ghost"}
	mock.ExpectQuery(`FROM users WHERE id = ANY\(\$1\)`).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "display_name", "handle", "avatar_url"}).
			AddRow("alice", "Alice", "alice", ""))

	profiles, err := repo.FindByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
	assert.Equal(t, "Alice", profiles["alice"].DisplayName)
	assert.NotContains(t, profiles, "ghost")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_FindByIDs_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	profiles, err := NewProfileRepository(mock).FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, profiles)
	assert.NoError(t, mock.ExpectationsWereMet())
}
