// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// preservedLeading is the number of leading children never archived.
const preservedLeading = 1

// preserveMarkers mark callouts that belong to the page template.
var preserveMarkers = []string{"解決したい課題", "要件定義レビュー"}

// ReplaceResult counts what ReplaceContent did.
type ReplaceResult struct {
	Archived  int
	Preserved int
	Appended  int
}

// ReplaceContent archives the current children of pageID and appends
// blocks. The first child, button controls and template callouts
// (searched through each child's whole subtree) are kept.
//
// Archival and appends are separate requests. A failure part way leaves
// the page partially replaced; the returned result reports how far it got.
func (c *Client) ReplaceContent(ctx context.Context, pageID string, blocks []types.Block) (ReplaceResult, error) {
	var res ReplaceResult

	current, err := c.Children(ctx, pageID)
	if err != nil {
		return res, fmt.Errorf("listing current content: %w", err)
	}

	seen := make(map[string]bool)
	for i, child := range current {
		keep := i < preservedLeading
		if !keep {
			keep, err = c.shouldPreserve(ctx, child, seen)
			if err != nil {
				return res, fmt.Errorf("inspecting block %s: %w", child.ID, err)
			}
		}
		if keep || child.ID == "" {
			res.Preserved++
			continue
		}
		if err := c.Archive(ctx, child.ID); err != nil {
			return res, fmt.Errorf("archiving block %s: %w", child.ID, err)
		}
		res.Archived++
	}

	res.Appended, err = c.AppendChildren(ctx, pageID, blocks)
	c.log().Debug("replaced page content",
		zap.String("page_id", pageID),
		zap.Int("archived", res.Archived),
		zap.Int("preserved", res.Preserved),
		zap.Int("appended", res.Appended))
	return res, err
}

// shouldPreserve walks root's subtree depth first with an explicit stack
// and stops at the first control or template callout. seen is shared
// across calls so that no block's children are fetched twice.
func (c *Client) shouldPreserve(ctx context.Context, root types.Block, seen map[string]bool) (bool, error) {
	stack := []types.Block{root}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if b.IsControl() || isTemplateCallout(b) {
			return true, nil
		}
		if !b.HasChildren || b.ID == "" || seen[b.ID] {
			continue
		}
		seen[b.ID] = true

		children, err := c.Children(ctx, b.ID)
		if err != nil {
			return false, err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return false, nil
}

func isTemplateCallout(b types.Block) bool {
	if b.Type != types.BlockCallout {
		return false
	}
	text := types.PlainText(b.RichText())
	for _, m := range preserveMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
