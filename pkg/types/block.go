// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the notion-formatter
// pipeline: the Notion block model, rich text, configuration and run records.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BlockType is the type tag of a Notion block.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockQuote            BlockType = "quote"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockCallout          BlockType = "callout"
	BlockCode             BlockType = "code"
	BlockDivider          BlockType = "divider"
	BlockButton           BlockType = "button"
	BlockTemplateButton   BlockType = "template_button"
)

// DefaultCodeLanguage is the language recorded for fences without a tag.
const DefaultCodeLanguage = "plain text"

// CalloutEmoji is the only callout icon the Markdown dialect knows.
const CalloutEmoji = "💡"

// TextBlock is the payload shared by paragraphs, headings, quotes and list items.
type TextBlock struct {
	RichText []RichText `json:"rich_text" yaml:"rich_text"`
	Color    Color      `json:"color,omitempty" yaml:"color,omitempty"`
}

// ToDoBlock is the payload of a to_do block.
type ToDoBlock struct {
	RichText []RichText `json:"rich_text" yaml:"rich_text"`
	Checked  bool       `json:"checked" yaml:"checked"`
	Color    Color      `json:"color,omitempty" yaml:"color,omitempty"`
}

// Icon is a callout icon. Only emoji icons are produced locally.
type Icon struct {
	Type  string `json:"type" yaml:"type"`
	Emoji string `json:"emoji,omitempty" yaml:"emoji,omitempty"`
}

// CalloutBlock is the payload of a callout block.
type CalloutBlock struct {
	RichText []RichText `json:"rich_text" yaml:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color    Color      `json:"color,omitempty" yaml:"color,omitempty"`
}

// CodeBlock is the payload of a code block. RichText holds the raw,
// possibly multi-line, source.
type CodeBlock struct {
	RichText []RichText `json:"rich_text" yaml:"rich_text"`
	Language string     `json:"language" yaml:"language"`
}

// DividerBlock is the (empty) payload of a divider block.
type DividerBlock struct{}

// Block is a Notion block. Type selects which payload field is set; blocks
// whose tag and payload disagree are invalid (see Valid).
//
// ID, HasChildren and Archived are only present on blocks read from the
// store. Children is filled by callers that materialise a subtree and is
// never sent over the wire.
type Block struct {
	Object      string    `json:"object,omitempty" yaml:"object,omitempty"`
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Type        BlockType `json:"type" yaml:"type"`
	HasChildren bool      `json:"has_children,omitempty" yaml:"has_children,omitempty"`
	Archived    bool      `json:"archived,omitempty" yaml:"archived,omitempty"`

	Paragraph        *TextBlock    `json:"paragraph,omitempty" yaml:"paragraph,omitempty"`
	Heading1         *TextBlock    `json:"heading_1,omitempty" yaml:"heading_1,omitempty"`
	Heading2         *TextBlock    `json:"heading_2,omitempty" yaml:"heading_2,omitempty"`
	Heading3         *TextBlock    `json:"heading_3,omitempty" yaml:"heading_3,omitempty"`
	Quote            *TextBlock    `json:"quote,omitempty" yaml:"quote,omitempty"`
	BulletedListItem *TextBlock    `json:"bulleted_list_item,omitempty" yaml:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock    `json:"numbered_list_item,omitempty" yaml:"numbered_list_item,omitempty"`
	ToDo             *ToDoBlock    `json:"to_do,omitempty" yaml:"to_do,omitempty"`
	Callout          *CalloutBlock `json:"callout,omitempty" yaml:"callout,omitempty"`
	Code             *CodeBlock    `json:"code,omitempty" yaml:"code,omitempty"`
	Divider          *DividerBlock `json:"divider,omitempty" yaml:"divider,omitempty"`

	// Interactive controls are kept opaque; only their presence matters.
	Button         json.RawMessage `json:"button,omitempty" yaml:"-"`
	TemplateButton json.RawMessage `json:"template_button,omitempty" yaml:"-"`

	Children []Block `json:"-" yaml:"children,omitempty"`
}

// MalformedBlockError reports a block whose type tag has no matching payload.
type MalformedBlockError struct {
	Index int
	Type  BlockType
}

func (e *MalformedBlockError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("block %d: missing type", e.Index)
	}
	return fmt.Sprintf("block %d (%s): missing %q payload", e.Index, e.Type, e.Type)
}

// Validate checks that the block's type tag and payload agree. index is
// only used to label the returned error.
func (b Block) Validate(index int) error {
	if b.Type == "" || !b.hasPayload() {
		return &MalformedBlockError{Index: index, Type: b.Type}
	}
	return nil
}

// Valid reports whether the type tag and payload agree.
func (b Block) Valid() bool {
	return b.Validate(0) == nil
}

func (b Block) hasPayload() bool {
	switch b.Type {
	case BlockParagraph:
		return b.Paragraph != nil
	case BlockHeading1:
		return b.Heading1 != nil
	case BlockHeading2:
		return b.Heading2 != nil
	case BlockHeading3:
		return b.Heading3 != nil
	case BlockQuote:
		return b.Quote != nil
	case BlockBulletedListItem:
		return b.BulletedListItem != nil
	case BlockNumberedListItem:
		return b.NumberedListItem != nil
	case BlockToDo:
		return b.ToDo != nil
	case BlockCallout:
		return b.Callout != nil
	case BlockCode:
		return b.Code != nil
	case BlockDivider:
		return b.Divider != nil
	case BlockButton:
		return b.Button != nil
	case BlockTemplateButton:
		return b.TemplateButton != nil
	default:
		// Types this package does not model decode with their tag only.
		return true
	}
}

// RichText returns the spans of the block's payload, or nil for variants
// without text.
func (b Block) RichText() []RichText {
	switch b.Type {
	case BlockParagraph:
		return textOf(b.Paragraph)
	case BlockHeading1:
		return textOf(b.Heading1)
	case BlockHeading2:
		return textOf(b.Heading2)
	case BlockHeading3:
		return textOf(b.Heading3)
	case BlockQuote:
		return textOf(b.Quote)
	case BlockBulletedListItem:
		return textOf(b.BulletedListItem)
	case BlockNumberedListItem:
		return textOf(b.NumberedListItem)
	case BlockToDo:
		if b.ToDo != nil {
			return b.ToDo.RichText
		}
	case BlockCallout:
		if b.Callout != nil {
			return b.Callout.RichText
		}
	case BlockCode:
		if b.Code != nil {
			return b.Code.RichText
		}
	}
	return nil
}

func textOf(t *TextBlock) []RichText {
	if t == nil {
		return nil
	}
	return t.RichText
}

// Text returns the block's plain text with surrounding whitespace removed.
func (b Block) Text() string {
	return strings.TrimSpace(PlainText(b.RichText()))
}

// HeadingLevel returns 1-3 for heading blocks and 0 otherwise.
func (b Block) HeadingLevel() int {
	switch b.Type {
	case BlockHeading1:
		return 1
	case BlockHeading2:
		return 2
	case BlockHeading3:
		return 3
	}
	return 0
}

// IsControl reports whether the block is an interactive button.
func (b Block) IsControl() bool {
	return b.Type == BlockButton || b.Type == BlockTemplateButton ||
		b.Button != nil || b.TemplateButton != nil
}

// NewParagraph builds a paragraph block.
func NewParagraph(text string, color Color) Block {
	return Block{Object: "block", Type: BlockParagraph, Paragraph: &TextBlock{RichText: NewRichText(text, color)}}
}

// NewHeading builds a heading block. level is clamped to [1,3].
func NewHeading(level int, text string) Block {
	level = min(max(level, 1), 3)
	payload := &TextBlock{RichText: NewRichText(text, ColorDefault)}
	switch level {
	case 1:
		return Block{Object: "block", Type: BlockHeading1, Heading1: payload}
	case 2:
		return Block{Object: "block", Type: BlockHeading2, Heading2: payload}
	default:
		return Block{Object: "block", Type: BlockHeading3, Heading3: payload}
	}
}

// NewQuote builds a quote block.
func NewQuote(text string, color Color) Block {
	return Block{Object: "block", Type: BlockQuote, Quote: &TextBlock{RichText: NewRichText(text, color)}}
}

// NewBulleted builds a bulleted list item.
func NewBulleted(text string, color Color) Block {
	return Block{Object: "block", Type: BlockBulletedListItem, BulletedListItem: &TextBlock{RichText: NewRichText(text, color)}}
}

// NewNumbered builds a numbered list item.
func NewNumbered(text string, color Color) Block {
	return Block{Object: "block", Type: BlockNumberedListItem, NumberedListItem: &TextBlock{RichText: NewRichText(text, color)}}
}

// NewToDo builds a to_do block.
func NewToDo(text string, checked bool, color Color) Block {
	return Block{Object: "block", Type: BlockToDo, ToDo: &ToDoBlock{RichText: NewRichText(text, color), Checked: checked}}
}

// NewCallout builds a callout with the 💡 icon.
func NewCallout(text string, color Color) Block {
	return Block{Object: "block", Type: BlockCallout, Callout: &CalloutBlock{
		RichText: NewRichText(text, color),
		Icon:     &Icon{Type: "emoji", Emoji: CalloutEmoji},
	}}
}

// NewCode builds a code block. An empty language becomes "plain text".
func NewCode(source, language string) Block {
	if language == "" {
		language = DefaultCodeLanguage
	}
	return Block{Object: "block", Type: BlockCode, Code: &CodeBlock{RichText: NewRichText(source, ColorDefault), Language: language}}
}

// NewDivider builds a divider block.
func NewDivider() Block {
	return Block{Object: "block", Type: BlockDivider, Divider: &DividerBlock{}}
}
