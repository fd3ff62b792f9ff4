// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

func TestRemoveInstructionCallouts(t *testing.T) {
	in := []types.Block{
		types.NewCallout(InstructionText, ""),
		p("本文"),
		types.NewCallout("補足: "+InstructionText+"。", ""),
		types.NewCallout("無関係なヒント", ""),
		types.NewParagraph(InstructionText, ""),
	}

	got := RemoveInstructionCallouts(in)

	assert.Equal(t, []typedText{
		{types.BlockParagraph, "本文"},
		{types.BlockCallout, "無関係なヒント"},
		{types.BlockParagraph, InstructionText},
	}, summarize(got))
}

func TestIsInstructionCallout(t *testing.T) {
	assert.True(t, IsInstructionCallout(types.NewCallout(InstructionText, "")))
	assert.False(t, IsInstructionCallout(types.NewCallout("要件定義レビュー", "")))
	assert.False(t, IsInstructionCallout(types.NewQuote(InstructionText, "")))
}
