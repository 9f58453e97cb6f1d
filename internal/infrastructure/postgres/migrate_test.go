package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/timebill?sslmode=disable", pgx5URL("postgres://u:p@db:5432/timebill?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/timebill", pgx5URL("postgresql://u@db/timebill"))
	assert.Equal(t, "pgx5://db/x", pgx5URL("pgx5://db/x"))
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}
