// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"strings"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// InstructionText is the usage hint the template shows above the request area.
const InstructionText = "解決したい課題を自由に以下に記述して、「要件定義レビュー」ボタンを押下してください"

// IsInstructionCallout reports whether b is the template's usage hint.
func IsInstructionCallout(b types.Block) bool {
	return b.Type == types.BlockCallout && strings.Contains(b.Text(), InstructionText)
}

// RemoveInstructionCallouts returns blocks without any instruction callout.
func RemoveInstructionCallouts(blocks []types.Block) []types.Block {
	out := make([]types.Block, 0, len(blocks))
	for _, b := range blocks {
		if IsInstructionCallout(b) {
			continue
		}
		out = append(out, b)
	}
	return out
}
