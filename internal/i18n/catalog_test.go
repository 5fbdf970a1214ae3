package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_Builtin(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	assert.Equal(t, DefaultPack, c.Active())
	assert.Equal(t, []string{"DE", DefaultPack}, c.Languages())
	assert.Equal(t, "Conditions", c.GetField(KeySheetConditions))
	assert.Equal(t, "Subprograms", c.GetField(KeySheetSubprograms))
}

func TestCatalog_FallsBackToDefault(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)
	require.NoError(t, c.SetActive("DE"))

	assert.Equal(t, "Bedingungen", c.GetField(KeySheetConditions))
	// Not translated in DE.
	assert.Equal(t, "Generate table", c.GetField("BUTTON_EXPORT"))
	assert.Equal(t, "NO_SUCH_KEY", c.GetField("NO_SUCH_KEY"))
}

func TestCatalog_SetActiveUnknown(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	assert.ErrorIs(t, c.SetActive("FR"), ErrUnknownLanguage)
	assert.Equal(t, DefaultPack, c.Active())
}

func TestCatalog_SearchPacks(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("fr.yaml", "INFO: FR\nTABLE_SHEET_CONDITIONS: Conditions FR\n")
	write("pl.json", `{"INFO": "PL", "TABLE_SHEET_CONDITIONS": "Warunki"}`)
	write("dup.yml", "INFO: DE\nTABLE_SHEET_CONDITIONS: other\n")
	write("notes.txt", "ignored")

	c, err := NewCatalog()
	require.NoError(t, err)

	added, err := c.SearchPacks(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	require.NoError(t, c.SetActive("PL"))
	assert.Equal(t, "Warunki", c.GetField(KeySheetConditions))

	// An already registered name keeps its first pack.
	require.NoError(t, c.SetActive("DE"))
	assert.Equal(t, "Bedingungen", c.GetField(KeySheetConditions))
}

func TestParsePack_RequiresInfo(t *testing.T) {
	_, err := ParsePack([]byte("TABLE_SHEET_CONDITIONS: x\n"))
	assert.Error(t, err)

	_, err = ParsePack([]byte("[unclosed"))
	assert.Error(t, err)
}
