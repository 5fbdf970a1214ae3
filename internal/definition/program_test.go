package definition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pressLineHCL = `
name    = "press line"
version = "1"

io "DoorClosed" {
  frame      = "state"
  hw_address = 3
}

io "PartPresent" {
  frame = "state"
}

io "Clamp" {
  frame  = "control"
  signal = "output"
}

subprogram "Feed" {
  step {
    description = "wait for part"

    state {
      target  = "PartPresent"
      require = "active"
    }
  }

  step {
    description = "clamp"
    operator    = "or"

    control {
      target  = "Clamp"
      require = "inactive"
    }
  }
}

rule {
  description    = "door guard"
  blocked        = true
  target_address = 2

  state {
    target  = "DoorClosed"
    require = "inactive"
  }
}
`

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader()
	require.NoError(t, err)
	return l
}

func TestLoader_ParseHCL(t *testing.T) {
	p, err := newLoader(t).Parse([]byte(pressLineHCL), FormatHCL, "press.hcl")
	require.NoError(t, err)

	assert.Equal(t, "press line", p.Name)
	require.Len(t, p.IO, 3)
	assert.Equal(t, IOElement{Name: "DoorClosed", Frame: "state", HWAddress: 3}, p.IO[0])
	require.Len(t, p.Subprograms, 1)
	require.Len(t, p.Subprograms[0].Steps, 2)
	assert.Equal(t, "or", p.Subprograms[0].Steps[1].Operator)
	require.Len(t, p.Rules, 1)
	assert.True(t, p.Rules[0].Blocked)
	assert.Equal(t, 2, p.Rules[0].TargetAddress)

	doc, err := p.ToDocument()
	require.NoError(t, err)

	e, ok := doc.IO.ByName("Clamp")
	require.True(t, ok)
	assert.Equal(t, document.FrameControl, e.Frame)
	assert.Equal(t, document.SignalOutput, e.Signal)

	assert.Equal(t, 3, doc.Subprograms.LastAddress())
	st, err := doc.Subprograms.Step(0, 1)
	require.NoError(t, err)
	assert.Equal(t, document.OperatorOR, st.Operator())
	b, err := st.LastCondition(document.FrameControl)
	require.NoError(t, err)
	target, state, _ := b.Data()
	assert.Equal(t, "Clamp", target)
	assert.Equal(t, document.StateInactive, state)
}

func TestProgram_DocumentRoundTrip(t *testing.T) {
	p, err := newLoader(t).Parse([]byte(pressLineHCL), FormatHCL, "press.hcl")
	require.NoError(t, err)
	doc, err := p.ToDocument()
	require.NoError(t, err)

	back := FromDocument("press line", doc)
	again, err := back.ToDocument()
	require.NoError(t, err)

	assert.Equal(t, FromDocument("press line", again), back)
	// Defaults are filled in on the way back.
	assert.Equal(t, "input", back.IO[0].Signal)
	assert.Equal(t, "default", back.Subprograms[0].Priority)
	assert.Equal(t, "and", back.Subprograms[0].Steps[0].Operator)
}

func TestProgram_MissingTargetLoadsUnresolved(t *testing.T) {
	p := &Program{
		IO: []IOElement{{Name: "Motor", Frame: "control"}},
		Rules: []Rule{{
			TargetAddress: 1,
			State:         []Condition{{Target: "Motor", Require: "active"}, {Target: "Gone"}},
		}},
	}

	doc, err := p.ToDocument()
	require.NoError(t, err)
	rule, err := doc.Rules.RuleAt(0)
	require.NoError(t, err)

	conds := rule.Conditions(document.FrameState)
	require.Len(t, conds, 2)
	for _, c := range conds {
		_, ok := c.Target()
		assert.False(t, ok)
	}
	assert.Equal(t, document.StateActive, conds[0].RequiredState())
	assert.Equal(t, document.StateAny, conds[1].RequiredState())
}

func TestProgram_ToDocumentRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		p    Program
	}{
		{"frame", Program{IO: []IOElement{{Name: "x", Frame: "both"}}}},
		{"hw address", Program{IO: []IOElement{{Name: "x", HWAddress: 256}}}},
		{"priority", Program{Subprograms: []Subprogram{{Name: "s", Priority: "urgent"}}}},
		{"operator", Program{Subprograms: []Subprogram{{Name: "s", Steps: []Step{{Operator: "xor"}}}}}},
		{"require", Program{Rules: []Rule{{State: []Condition{{Require: "maybe"}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.ToDocument()
			assert.Error(t, err)
		})
	}
}

func TestLoader_SchemaRejects(t *testing.T) {
	l := newLoader(t)

	_, err := l.Parse([]byte(`{"io":[{"name":"x","frame":"both"}]}`), FormatJSON, "p.json")
	assert.Error(t, err)

	_, err = l.Parse([]byte(`{"unknown": 1}`), FormatJSON, "p.json")
	assert.Error(t, err)

	_, err = l.Parse([]byte("io:\n  - name: x\n    hw_address: 300\n"), FormatYAML, "p.yaml")
	assert.Error(t, err)

	_, err = l.Parse([]byte("io:\n  - name: x\n    colour: red\n"), FormatYAML, "p.yaml")
	assert.Error(t, err)

	_, err = l.Parse([]byte(`io "x" { frame = "both" }`), FormatHCL, "p.hcl")
	assert.Error(t, err)
}

func TestLoader_EmptyYAML(t *testing.T) {
	p, err := newLoader(t).Parse(nil, FormatYAML, "p.yaml")
	require.NoError(t, err)
	assert.Empty(t, p.IO)
}

// normalize passes p through a document so empty and nil slices compare
// equal.
func normalize(t *testing.T, p *Program) *Program {
	t.Helper()
	doc, err := p.ToDocument()
	require.NoError(t, err)
	return FromDocument(p.Name, doc)
}

func TestSaveAndLoadFile(t *testing.T) {
	l := newLoader(t)
	src, err := l.Parse([]byte(pressLineHCL), FormatHCL, "press.hcl")
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"p.json", "p.yaml", "p.hcl"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveFile(path, src))

			got, err := l.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, normalize(t, src), normalize(t, got))

			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("a/b.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("a/b.toml")
	assert.Error(t, err)
}
