// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"testing"
)

func TestNormalizeID(t *testing.T) {
	const want = "0123abcd-4567-89ef-0123-456789abcdef"
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "dashed", in: want, want: want},
		{name: "undashed", in: "0123abcd456789ef0123456789abcdef", want: want},
		{name: "upper case", in: "0123ABCD456789EF0123456789ABCDEF", want: want},
		{name: "surrounding space", in: "  " + want + "\n", want: want},
		{name: "page url", in: "https://www.notion.so/acme/Requirement-Draft-0123abcd456789ef0123456789abcdef", want: want},
		{name: "url with query", in: "https://www.notion.so/0123abcd456789ef0123456789abcdef?pvs=4", want: want},
		{name: "url with trailing slash", in: "https://www.notion.so/Title-0123abcd456789ef0123456789abcdef/", want: want},
		{name: "empty", in: "", wantErr: true},
		{name: "too short", in: "0123abcd", wantErr: true},
		{name: "not hex", in: "https://www.notion.so/Some-Page", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeID(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeID(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeID(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
