// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// promptTmpl holds the system and user prompt templates.
var promptTmpl = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// Prompts is the pair of messages sent to the model.
type Prompts struct {
	System string
	User   string
}

// PromptInput carries the page content and labels the prompts are built from.
type PromptInput struct {
	// TemplateMarkdown is the rendered template page.
	TemplateMarkdown string

	// PageMarkdown is the rendered draft being formatted.
	PageMarkdown string

	// ReviewGuidelines is the optional rendered guideline page.
	ReviewGuidelines string

	// ReviewHeading names the review section the model must produce.
	ReviewHeading string

	// CompletionPhrase is the status message suggested for a complete draft.
	CompletionPhrase string
}

type promptData struct {
	PromptInput
	GuidelinesBlock string
}

// BuildPrompts renders the system and user prompts for one formatting run.
// The guideline section is included only when guidelines are non-blank.
func BuildPrompts(in PromptInput) (Prompts, error) {
	data := promptData{PromptInput: in}
	if g := strings.TrimSpace(in.ReviewGuidelines); g != "" {
		data.GuidelinesBlock = "\n## レビュー観点ガイドライン\n" + g
	}

	system, err := render("system.tmpl", data)
	if err != nil {
		return Prompts{}, err
	}
	user, err := render("user.tmpl", data)
	if err != nil {
		return Prompts{}, err
	}
	return Prompts{System: system, User: user}, nil
}

func render(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
