package replay

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Encode renders a fixture as HCL
func Encode(fixture *Fixture) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if fixture.SessionID != "" {
		body.SetAttributeValue("session_id", cty.StringVal(fixture.SessionID))
	}
	body.SetAttributeValue("seed", cty.NumberUIntVal(fixture.Seed))

	for _, seq := range fixture.Sequences {
		body.AppendNewline()
		block := body.AppendNewBlock("sequence", []string{seq.Name}).Body()
		block.SetAttributeValue("domain", cty.StringVal(seq.Domain))
		if len(seq.Context) > 0 {
			block.SetAttributeValue("context", uintList(seq.Context))
		}
		block.SetAttributeValue("op", cty.StringVal(seq.Op))

		switch seq.Op {
		case OpRange:
			block.SetAttributeValue("min", cty.NumberIntVal(seq.Min))
			block.SetAttributeValue("max", cty.NumberIntVal(seq.Max))
			block.SetAttributeValue("ints", intList(seq.Ints))
		default:
			block.SetAttributeValue("values", uintList(seq.Values))
		}
	}

	return f.Bytes()
}

func uintList(values []uint64) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	out := make([]cty.Value, len(values))
	for i, v := range values {
		out[i] = cty.NumberUIntVal(v)
	}
	return cty.ListVal(out)
}

func intList(values []int64) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	out := make([]cty.Value, len(values))
	for i, v := range values {
		out[i] = cty.NumberIntVal(v)
	}
	return cty.ListVal(out)
}

// Decode parses a fixture from HCL source
func Decode(src []byte, filename string) (*Fixture, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse fixture: %s", diags.Error())
	}

	var fixture Fixture
	diags = gohcl.DecodeBody(file.Body, nil, &fixture)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode fixture: %s", diags.Error())
	}
	return &fixture, nil
}

// ReadFile loads a fixture from disk
func ReadFile(path string) (*Fixture, error) {
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Decode(src, path)
}

// WriteFile writes a fixture atomically: readers see either the previous
// file or the complete new one, never a partial write.
func WriteFile(path string, fixture *Fixture) error {
	return writeFileAtomic(path, Encode(fixture), 0o644)
}

func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	// temp file must live on the same filesystem for rename to be atomic
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmpFile = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
