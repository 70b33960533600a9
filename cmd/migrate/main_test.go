package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionAndName(t *testing.T) {
	ver, name, err := parseVersionAndName("001_init.up.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, ver)
	assert.Equal(t, "init", name)

	_, _, err = parseVersionAndName("init.sql")
	assert.Error(t, err)

	_, _, err = parseVersionAndName("abc_init.sql")
	assert.Error(t, err)
}

func TestLoadMigrationFiles_SortsAndClassifies(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.up.sql", "001_a.down.sql", "001_a.up.sql", "README.md", "x_skip.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}

	files, err := loadMigrationFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, 1, files[0].version)
	assert.Equal(t, 2, files[2].version)

	kinds := map[string]int{}
	for _, f := range files {
		kinds[f.kind]++
	}
	assert.Equal(t, 2, kinds["up"])
	assert.Equal(t, 1, kinds["down"])
}

func TestRepositoryMigrationsLoad(t *testing.T) {
	files, err := loadMigrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
