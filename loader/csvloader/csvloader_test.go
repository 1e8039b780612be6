package csvloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsquery/squerytranslate/internal/registry"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEntities(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "entities.csv", "entity,table,alias\nRole,UM_Roles,role\nUser,UM_Users,\n")

	b := registry.NewBuilder()
	require.NoError(t, LoadEntities(b, path))
	reg := b.Freeze()

	table, ok := reg.Table("Role")
	require.True(t, ok)
	assert.Equal(t, "UM_Roles", table)
	alias, ok := reg.Alias("Role")
	require.True(t, ok)
	assert.Equal(t, "role", alias)

	_, ok = reg.Alias("User")
	assert.False(t, ok, "blank alias column should not bind an alias")
}

func TestLoadColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "columns.csv", "table,column\nUM_Roles,Id\nUM_Roles,Name\n")

	b := registry.NewBuilder()
	require.NoError(t, LoadColumns(b, path))
	reg := b.Freeze()

	has, known := reg.HasColumn("UM_Roles", "Name")
	assert.True(t, known)
	assert.True(t, has)
}

func TestLoadForeignKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "fks.csv", "table,local_column,ref_table,ref_column\nUR_AzureSubscriptionRoles,Role_Id,UM_Roles,Id\n")

	b := registry.NewBuilder()
	require.NoError(t, LoadForeignKeys(b, path))
	reg := b.Freeze()

	fk, ok := reg.ForeignKeyFor("UR_AzureSubscriptionRoles", "Role_Id")
	require.True(t, ok)
	assert.Equal(t, "UM_Roles", fk.RefTable)
}

func TestLoadEntitiesRejectsShortRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bad.csv", "entity,table,alias\nRole\n")

	b := registry.NewBuilder()
	err := LoadEntities(b, path)
	assert.Error(t, err)
}

func TestLoadEntitiesMissingFile(t *testing.T) {
	b := registry.NewBuilder()
	err := LoadEntities(b, "/no/such/file.csv")
	assert.Error(t, err)
}
