package xlsx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *export.Report {
	doc := document.New()
	e := document.NewIOElement()
	e.Name = "Sensor1"
	doc.IO.Add(e)

	sp := doc.Subprograms.AddSubprogram()
	sp.SetName("Main")
	st := sp.AddStep()
	st.SetDescription("start")
	b := st.NewCondition(document.FrameState)
	b.SelectTarget(doc.IO, "Sensor1")
	b.SetRequiredState(document.StateActive)

	rule := doc.Rules.AddRule()
	rule.SetDescription("guard")
	rule.SetBlocked(true)

	return export.Build(doc, export.DefaultLabels())
}

func TestWorkbook_WritesBothSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "table.xlsx")

	wb, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, export.Write(sampleReport(), wb))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Conditions", "Subprograms"}, f.GetSheetList())

	v, err := f.GetCellValue("Conditions", "A4")
	require.NoError(t, err)
	assert.Equal(t, "guard", v)

	v, err = f.GetCellValue("Conditions", "F4")
	require.NoError(t, err)
	assert.Equal(t, "10", v)

	v, err = f.GetCellValue("Conditions", "G4")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = f.GetCellValue("Subprograms", "G5")
	require.NoError(t, err)
	assert.Equal(t, "10", v)

	merged, err := f.GetMergeCells("Subprograms")
	require.NoError(t, err)
	var refs []string
	for _, m := range merged {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, refs, "A1:D3")
	assert.Contains(t, refs, "B5:D5")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWorkbook_DiscardLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.xlsx")

	wb, err := Open(path)
	require.NoError(t, err)
	_, err = wb.AddWorksheet("Conditions")
	require.NoError(t, err)
	require.NoError(t, wb.(export.Discarder).Discard())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWorkbook_InvalidSheetName(t *testing.T) {
	wb, err := Open(filepath.Join(t.TempDir(), "table.xlsx"))
	require.NoError(t, err)

	_, err = wb.AddWorksheet("bad[name]")
	assert.Error(t, err)
}
