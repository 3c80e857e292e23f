// Package dataset reads and writes network snapshot files.
//
// A snapshot is a YAML or JSON document with a list of nodes and a list of
// routes, in the same shape the persistence layer stores them.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Snapshot is the content of one network file.
type Snapshot struct {
	Name   string              `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes  []graph.NodeRecord  `json:"nodes" yaml:"nodes"`
	Routes []graph.RouteRecord `json:"routes" yaml:"routes"`
}

// Load reads and validates the snapshot at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}

// Decode parses a snapshot, fills record defaults and validates every record.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var snap Snapshot
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	default:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	}

	for i := range snap.Nodes {
		snap.Nodes[i].ApplyDefaults()
		if err := validation.ValidateNodeRecord(&snap.Nodes[i]); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, snap.Nodes[i].NodeID, err)
		}
	}
	for i := range snap.Routes {
		snap.Routes[i].ApplyDefaults()
		if err := validation.ValidateRouteRecord(&snap.Routes[i]); err != nil {
			return nil, fmt.Errorf("route %d (%s->%s): %w", i, snap.Routes[i].Source, snap.Routes[i].Target, err)
		}
	}
	return &snap, nil
}

// Encode writes snap in the given format.
func Encode(w io.Writer, snap *Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Save writes snap to path, choosing the format from the extension.
func Save(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Encode(f, snap, FormatFromPath(path)); err != nil {
		f.Close()
		return fmt.Errorf("encode dataset: %w", err)
	}
	return f.Close()
}
