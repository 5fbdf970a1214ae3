package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", fmt.Errorf("unsupported program file extension %q", filepath.Ext(path))
}

func ParseJSON(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseYAML rejects unknown keys.
func ParseYAML(data []byte) (*Program, error) {
	var p Program
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &p, nil
}

// ParseHCL decodes an HCL program. filename is only used in diagnostics.
func ParseHCL(filename string, data []byte) (*Program, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var p Program
	if diags := gohcl.DecodeBody(file.Body, nil, &p); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}
	return &p, nil
}

func (p *Program) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func (p *Program) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Program) ToHCL() []byte {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(p, f.Body())
	return f.Bytes()
}

func (p *Program) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return p.ToJSON()
	case FormatYAML:
		return p.ToYAML()
	case FormatHCL:
		return p.ToHCL(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// Loader parses program files and checks them against the schema.
type Loader struct {
	validator *Validator
}

func NewLoader() (*Loader, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{validator: v}, nil
}

// Parse decodes data in the given format and validates the result.
func (l *Loader) Parse(data []byte, format Format, filename string) (*Program, error) {
	var (
		p   *Program
		err error
	)
	switch format {
	case FormatJSON:
		if err := l.validator.ValidateJSON(data); err != nil {
			return nil, err
		}
		p, err = ParseJSON(data)
	case FormatYAML:
		p, err = ParseYAML(data)
	case FormatHCL:
		p, err = ParseHCL(filename, data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s program: %w", format, err)
	}

	if format != FormatJSON {
		if err := l.validator.ValidateProgram(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (l *Loader) LoadFile(path string) (*Program, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	p, err := l.Parse(data, format, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SaveFile writes p in the format implied by path. The file is replaced
// atomically.
func SaveFile(path string, p *Program) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := p.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to encode program: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write program: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace program: %w", err)
	}
	return nil
}
