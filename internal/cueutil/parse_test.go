// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name:   string
	count?: int & >=0
	tags?: [...string]
}
`

type settings struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	got, err := ParseAndDecode[settings]([]byte(testSchema), []byte(`name: "a", count: 2, tags: ["x"]`), "#Settings")
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if got.Name != "a" || got.Count != 2 || len(got.Tags) != 1 {
		t.Errorf("ParseAndDecode() = %+v", got)
	}
}

func TestParseAndDecode_Map(t *testing.T) {
	t.Parallel()

	got, err := ParseAndDecode[map[string]any]([]byte(testSchema), []byte(`name: "a"`), "#Settings", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if (*got)["name"] != "a" {
		t.Errorf("name = %v", (*got)["name"])
	}
	if _, ok := (*got)["count"]; ok {
		t.Error("optional field should not be decoded when unset")
	}
}

func TestParseAndDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantSub string
	}{
		{"syntax", `name: "a`, []Option{WithFilename("cfg.cue")}, "cfg.cue"},
		{"constraint", `name: "a", count: -1`, []Option{WithFilename("cfg.cue")}, "count"},
		{"closed", `name: "a", extra: 1`, nil, "extra"},
		{"list_index", `name: "a", tags: ["x", 1]`, nil, "tags[1]"},
		{"too_large", `name: "aaaaaaaa"`, []Option{WithMaxFileSize(4)}, "exceeds maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseAndDecode[settings]([]byte(testSchema), []byte(tt.data), "#Settings", tt.opts...)
			if err == nil {
				t.Fatal("ParseAndDecode() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"":                  nil,
		"build":             {"build"},
		"locate.exclude[2]": {"locate", "exclude", "2"},
		"a[0].b":            {"a", "0", "b"},
	}
	for want, in := range tests {
		if got := formatPath(in); got != want {
			t.Errorf("formatPath(%v) = %q, want %q", in, got, want)
		}
	}
}
