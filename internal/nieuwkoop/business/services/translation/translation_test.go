package translation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	tbl := Default()

	assert.Equal(t, "Macetas", tbl.Lookup(KindCategory, "Pots"))
	assert.Equal(t, "Macetas", tbl.Lookup(KindCategory, " pots "))
	assert.Equal(t, "Cerámica", tbl.Lookup(KindMaterial, "Ceramic"))
	assert.Equal(t, "Unknown thing", tbl.Lookup(KindCategory, "Unknown thing"))
	assert.Equal(t, "", tbl.Lookup(KindCountry, ""))
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  Pots: Tiestos\n  Benches: Bancos\n"), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Tiestos", tbl.Lookup(KindCategory, "Pots"))
	assert.Equal(t, "Bancos", tbl.Lookup(KindCategory, "Benches"))
	assert.Equal(t, "Plantas", tbl.Lookup(KindCategory, "Plants"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
