// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Color is a Notion semantic color applied to rich text or a whole block.
type Color string

const (
	ColorDefault          Color = "default"
	ColorGray             Color = "gray"
	ColorBrown            Color = "brown"
	ColorOrange           Color = "orange"
	ColorYellow           Color = "yellow"
	ColorGreen            Color = "green"
	ColorBlue             Color = "blue"
	ColorPurple           Color = "purple"
	ColorPink             Color = "pink"
	ColorRed              Color = "red"
	ColorGrayBackground   Color = "gray_background"
	ColorBrownBackground  Color = "brown_background"
	ColorOrangeBackground Color = "orange_background"
	ColorYellowBackground Color = "yellow_background"
	ColorGreenBackground  Color = "green_background"
	ColorBlueBackground   Color = "blue_background"
	ColorPurpleBackground Color = "purple_background"
	ColorPinkBackground   Color = "pink_background"
	ColorRedBackground    Color = "red_background"
)

// Annotations holds the emphasis flags and color of one rich text span.
type Annotations struct {
	Bold          bool  `json:"bold" yaml:"bold"`
	Italic        bool  `json:"italic" yaml:"italic"`
	Strikethrough bool  `json:"strikethrough" yaml:"strikethrough"`
	Underline     bool  `json:"underline" yaml:"underline"`
	Code          bool  `json:"code" yaml:"code"`
	Color         Color `json:"color" yaml:"color"`
}

// Link is the optional hyperlink target of a text span.
type Link struct {
	URL string `json:"url" yaml:"url"`
}

// TextContent is the payload of a span whose type is "text".
type TextContent struct {
	Content string `json:"content" yaml:"content"`
	Link    *Link  `json:"link,omitempty" yaml:"link,omitempty"`
}

// RichText is a single span of styled text. Spans read from Notion carry
// PlainText; spans built locally carry only Text.
type RichText struct {
	Type        string       `json:"type" yaml:"type"`
	Text        *TextContent `json:"text,omitempty" yaml:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty" yaml:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty" yaml:"href,omitempty"`
}

// String returns the span's displayable text.
func (r RichText) String() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

// Color returns the span color, ColorDefault when unset.
func (r RichText) Color() Color {
	if r.Annotations == nil || r.Annotations.Color == "" {
		return ColorDefault
	}
	return r.Annotations.Color
}

// PlainText concatenates the text of each span in order.
func PlainText(spans []RichText) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.String())
	}
	return b.String()
}

// NewRichText returns a single unstyled span. An empty color means default.
func NewRichText(text string, color Color) []RichText {
	if color == "" {
		color = ColorDefault
	}
	return []RichText{{
		Type: "text",
		Text: &TextContent{Content: text},
		Annotations: &Annotations{
			Color: color,
		},
	}}
}
