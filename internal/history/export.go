// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes the runs matching opts to w as a YAML sequence.
// Markdown snapshots are included.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	runs, err := s.exportRuns(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the runs matching opts to w as an indented JSON array.
// Markdown snapshots are included.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	runs, err := s.exportRuns(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (s *Store) exportRuns(ctx context.Context, opts ListOptions) ([]types.Run, error) {
	opts.Limit = exportLimit
	opts.WithMarkdown = true
	runs, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if runs == nil {
		runs = []types.Run{}
	}
	return runs, nil
}
