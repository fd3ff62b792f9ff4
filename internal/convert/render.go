// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// indentUnit is prefixed once per nesting level.
const indentUnit = "  "

// ChildSource fetches the ordered children of a block or page.
// The Notion client implements this interface.
type ChildSource interface {
	Children(ctx context.Context, blockID string) ([]types.Block, error)
}

// RenderPage fetches the children of pageID and renders them as Markdown.
func RenderPage(ctx context.Context, src ChildSource, pageID string) (string, error) {
	blocks, err := src.Children(ctx, pageID)
	if err != nil {
		return "", fmt.Errorf("fetching page %s: %w", pageID, err)
	}
	return Render(ctx, src, blocks)
}

// Render serializes blocks depth first. Blocks flagged HasChildren have
// their children rendered right after them, one indent level deeper; the
// children come from Block.Children when already materialised and from
// src otherwise. src may be nil when every subtree is materialised.
func Render(ctx context.Context, src ChildSource, blocks []types.Block) (string, error) {
	var lines []string
	if err := renderInto(ctx, src, blocks, 0, &lines); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func renderInto(ctx context.Context, src ChildSource, blocks []types.Block, depth int, out *[]string) error {
	indent := strings.Repeat(indentUnit, depth)
	for _, b := range blocks {
		*out = append(*out, blockLines(b, indent)...)

		if !b.HasChildren && len(b.Children) == 0 {
			continue
		}
		children := b.Children
		if children == nil {
			if src == nil {
				return fmt.Errorf("block %s has children but no source to fetch them", b.ID)
			}
			var err error
			children, err = src.Children(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("fetching children of %s: %w", b.ID, err)
			}
		}
		if err := renderInto(ctx, src, children, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// blockLines returns the Markdown lines of a single block. Unknown types
// and empty paragraphs or quotes produce no lines.
func blockLines(b types.Block, indent string) []string {
	content := b.Text()
	switch b.Type {
	case types.BlockParagraph:
		if content == "" {
			return nil
		}
		return []string{indent + content}
	case types.BlockQuote:
		if content == "" {
			return nil
		}
		return []string{indent + "> " + content}
	case types.BlockHeading1, types.BlockHeading2, types.BlockHeading3:
		return []string{indent + strings.Repeat("#", b.HeadingLevel()) + " " + content}
	case types.BlockBulletedListItem:
		return []string{indent + "- " + content}
	case types.BlockNumberedListItem:
		// Notion numbers list items itself; the ordinal is not preserved.
		return []string{indent + "1. " + content}
	case types.BlockToDo:
		mark := " "
		if b.ToDo != nil && b.ToDo.Checked {
			mark = "x"
		}
		return []string{indent + "- [" + mark + "] " + content}
	case types.BlockCallout:
		return []string{indent + types.CalloutEmoji + " " + content}
	case types.BlockCode:
		lang := types.DefaultCodeLanguage
		if b.Code != nil && b.Code.Language != "" {
			lang = b.Code.Language
		}
		// Code content is not indented so the fenced text stays intact.
		return []string{indent + fence + lang, content, indent + fence}
	case types.BlockDivider:
		return []string{indent + "---"}
	}
	return nil
}
