package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSorted(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestConstraintViolation(t *testing.T) {
	err := fmt.Errorf("insert partner: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "unique_partner_guild"})

	name, ok := ConstraintViolation(err, CodeUniqueViolation)
	assert.True(t, ok)
	assert.Equal(t, "unique_partner_guild", name)

	_, ok = ConstraintViolation(err, CodeForeignKeyViolation)
	assert.False(t, ok)
	_, ok = ConstraintViolation(errors.New("boom"), CodeUniqueViolation)
	assert.False(t, ok)
	_, ok = ConstraintViolation(nil, CodeUniqueViolation)
	assert.False(t, ok)
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("other")))
}
