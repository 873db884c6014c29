package postgres

import (
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs, "every migration needs an up and a down")
}

func TestEmbeddedMigrations_SourceReadable(t *testing.T) {
	src, err := iofs.New(migrationFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	body, _, err := src.ReadUp(first)
	require.NoError(t, err)
	defer body.Close()
	buf := new(strings.Builder)
	_, err = io.Copy(buf, body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "CREATE TABLE IF NOT EXISTS rate_tables")
	assert.Contains(t, buf.String(), "idx_rate_tables_one_active")
}

//Personal.AI order the ending
