package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/waveplan/internal/errors"
)

// Format is a unit file encoding.
type Format string

// Supported unit file formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// unitFile is the wrapped document form: {units: [...]}.
type unitFile struct {
	Units []Unit `json:"units" yaml:"units" toml:"units"`
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.NewUnsupportedFileError(path, ".json", ".yaml", ".yml", ".toml")
	}
}

// LoadUnits reads units from a JSON, YAML or TOML file.
func LoadUnits(path string) ([]Unit, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.NewFileReadError(path, err)
	}
	defer f.Close()

	units, err := DecodeUnits(f, format)
	if err != nil {
		return nil, errors.NewFileUnmarshalError(path, string(format), err)
	}
	return units, nil
}

// DecodeUnits decodes units from r. JSON and YAML accept either a bare list
// or a {units: [...]} document; TOML requires the document form.
func DecodeUnits(r io.Reader, format Format) ([]Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}

	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var units []Unit
			if err := json.Unmarshal(trimmed, &units); err != nil {
				return nil, fmt.Errorf("unmarshal units: %w", err)
			}
			return units, nil
		}
		var doc unitFile
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal units: %w", err)
		}
		return doc.Units, nil

	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("unmarshal units: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			var units []Unit
			if err := node.Content[0].Decode(&units); err != nil {
				return nil, fmt.Errorf("unmarshal units: %w", err)
			}
			return units, nil
		}
		var doc unitFile
		if err := node.Content[0].Decode(&doc); err != nil {
			return nil, fmt.Errorf("unmarshal units: %w", err)
		}
		return doc.Units, nil

	case FormatTOML:
		var doc unitFile
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
			return nil, fmt.Errorf("unmarshal units: %w", err)
		}
		return doc.Units, nil

	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// LoadPlan reads an exported ExecutionPlan from a JSON file
func LoadPlan(path string) (*ExecutionPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.NewFileReadError(path, err)
	}

	var p ExecutionPlan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.NewFileUnmarshalError(path, "json", err)
	}

	if err := p.Validate(); err != nil {
		return nil, errors.NewInvalidPlanFileError(path, err)
	}

	return &p, nil
}

// SavePlan writes an ExecutionPlan to a JSON file
func SavePlan(p *ExecutionPlan, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.NewFileWriteError(path, err)
	}

	return nil
}
