package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vikashrahii/pipeline/pkg/domain"
	"gopkg.in/yaml.v3"
)

// isJSON reports whether path should be encoded as JSON. Everything else is YAML.
func isJSON(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// LoadGraph reads a pipeline graph from a JSON or YAML file, chosen by extension.
func LoadGraph(path string) (domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to read graph file: %w", err)
	}

	var g domain.Graph
	if isJSON(path) {
		err = json.Unmarshal(data, &g)
	} else {
		err = yaml.Unmarshal(data, &g)
	}
	if err != nil {
		return domain.Graph{}, fmt.Errorf("failed to parse graph file %s: %w", filepath.Base(path), err)
	}

	for i, n := range g.Nodes {
		if n.ID == "" {
			return domain.Graph{}, fmt.Errorf("%w: node %d has no id", domain.ErrInvalidRecord, i)
		}
	}
	return g.Normalize(), nil
}

// SaveGraph writes g to path atomically: it writes a temp file in the same
// directory, syncs it and renames it over the destination.
func SaveGraph(path string, g domain.Graph) error {
	g = g.Normalize()

	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(g, "", "  ")
	} else {
		data, err = yaml.Marshal(g)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure graph directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-graph-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace graph file: %w", err)
	}
	return nil
}
