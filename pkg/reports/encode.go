package reports

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Ext is the file extension for a format, with ".sz" appended when
// compressed.
func (f Format) Ext(compressed bool) string {
	ext := "." + string(f)
	if compressed {
		ext += ".sz"
	}
	return ext
}

func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode serializes the report. YAML output goes through the JSON form so
// both formats share the same camelCase keys. Compression uses the snappy
// block format.
func Encode(r *Report, format Format, compress bool) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	switch format {
	case FormatJSON:
	case FormatYAML:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		if data, err = yaml.Marshal(doc); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}

	if compress {
		data = snappy.Encode(nil, data)
	}
	return data, nil
}

// Decode reverses Encode.
func Decode(data []byte, format Format, compressed bool) (*Report, error) {
	if compressed {
		var err error
		if data, err = snappy.Decode(nil, data); err != nil {
			return nil, fmt.Errorf("decompress report: %w", err)
		}
	}

	switch format {
	case FormatJSON:
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		var err error
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
