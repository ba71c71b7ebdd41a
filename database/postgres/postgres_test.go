package postgres

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations(t *testing.T) {
	t.Run("orders by version and skips unrelated files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "002_second.sql", []byte("SELECT 2;"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "001_first.sql", []byte("SELECT 1;"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "README.md", []byte("notes"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "draft.sql", []byte("SELECT 0;"), 0o644))

		migrations, err := ReadMigrations(fs)
		require.NoError(t, err)
		require.Len(t, migrations, 2)
		assert.Equal(t, 1, migrations[0].Version)
		assert.Equal(t, "first", migrations[0].Name)
		assert.Equal(t, "SELECT 2;", migrations[1].SQL)
	})

	t.Run("bundled migrations create the interaction table", func(t *testing.T) {
		migrations, err := ReadMigrations(MigrationsFs())
		require.NoError(t, err)
		require.NotEmpty(t, migrations)
		assert.Contains(t, migrations[0].SQL, "assistant_interactions")
	})
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "webby")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "assistant")
	t.Setenv("DB_SSLMODE", "")

	assert.Equal(t, "host=db port=5432 user=webby password=secret dbname=assistant sslmode=disable", DSN())
}
