// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// trailingHexID matches the 32 hex digits that end a Notion page slug.
var trailingHexID = regexp.MustCompile(`[0-9a-fA-F]{32}$`)

// NormalizeID returns the dashed, lower-case form of a Notion page or
// block ID. It accepts dashed and undashed IDs as well as page URLs such
// as https://www.notion.so/Title-0123456789abcdef0123456789abcdef?pvs=4.
func NormalizeID(s string) (string, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", fmt.Errorf("empty notion id")
	}
	if id, err := uuid.Parse(raw); err == nil {
		return id.String(), nil
	}

	slug := raw
	if i := strings.IndexAny(slug, "?#"); i >= 0 {
		slug = slug[:i]
	}
	slug = strings.TrimRight(slug, "/")
	if i := strings.LastIndex(slug, "/"); i >= 0 {
		slug = slug[i+1:]
	}
	if id, err := uuid.Parse(slug); err == nil {
		return id.String(), nil
	}
	if m := trailingHexID.FindString(strings.ReplaceAll(slug, "-", "")); m != "" {
		if id, err := uuid.Parse(m); err == nil {
			return id.String(), nil
		}
	}
	return "", fmt.Errorf("invalid notion id %q", s)
}
