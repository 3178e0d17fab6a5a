// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/npmverified/npm-verified/internal/config"
	"github.com/npmverified/npm-verified/internal/manifest"
	"github.com/npmverified/npm-verified/internal/pipeline"
	"github.com/npmverified/npm-verified/internal/pkgspec"
	"github.com/npmverified/npm-verified/internal/treediff"
)

func differentDoc() Document {
	return Document{
		Package:     "demo",
		Version:     "1.2.3",
		Repository:  "git+https://example.com/demo.git",
		Tag:         "v1.2.3",
		PackageRoot: ".",
		Diffs: []treediff.Record{
			{
				Path: "lib/index.js",
				Kind: treediff.KindContent,
				Hunks: []treediff.Hunk{{
					OldStart: 1, OldLines: 2, NewStart: 1, NewLines: 2,
					Lines: []string{" a", "-b", "+c"},
				}},
			},
			{
				Path: "dist.js",
				Kind: treediff.KindStat,
				Hunks: []treediff.Hunk{{
					OldStart: 1, OldLines: 5, NewStart: 1, NewLines: 5,
					Lines: []string{" {", "-  \"exists\": true,", "+  \"exists\": false,"},
				}},
			},
		},
	}
}

func TestText_Same(t *testing.T) {
	t.Parallel()

	got := Text(Document{Same: true}, DefaultStyles(false))
	assert.Equal(t, "Published package is the same as the package prepared from source code.\n", got)
}

func TestText_Different(t *testing.T) {
	t.Parallel()

	want := strings.Join([]string{
		"Published package is different from the package prepared from source code.",
		"- prepared + published",
		"",
		"./lib/index.js @ 1-3 → 1-3",
		" a",
		"-b",
		"+c",
		"",
		"./dist.js (stats) @ 1-6 → 1-6",
		" {",
		"-  \"exists\": true,",
		"+  \"exists\": false,",
	}, "\n") + "\n"

	assert.Equal(t, want, Text(differentDoc(), DefaultStyles(false)))
}

func TestText_KeepsTabs(t *testing.T) {
	t.Parallel()

	doc := Document{Diffs: []treediff.Record{{
		Path:  "f",
		Kind:  treediff.KindContent,
		Hunks: []treediff.Hunk{{OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1, Lines: []string{"-\tx", "+  x"}}},
	}}}
	assert.Contains(t, Text(doc, DefaultStyles(false)), "-\tx\n")
}

func TestJSON_Canonical(t *testing.T) {
	t.Parallel()

	doc := differentDoc()
	doc.Diffs = doc.Diffs[:1]

	got, err := JSON(doc)
	require.NoError(t, err)

	want := `{"diffs":[{"hunks":[{"lines":[" a","-b","+c"],"newLines":2,"newStart":1,"oldLines":2,"oldStart":1}],"kind":"content","path":"lib/index.js"}],` +
		`"package":"demo","packageRoot":".","repository":"git+https://example.com/demo.git","same":false,"tag":"v1.2.3","version":"1.2.3"}` + "\n"
	assert.Equal(t, want, string(got))
}

func TestJSON_SameHasEmptyDiffs(t *testing.T) {
	t.Parallel()

	out := &pipeline.Outcome{Result: treediff.Result{Same: true}}
	got, err := JSON(NewDocument(out))
	require.NoError(t, err)
	assert.Contains(t, string(got), `"diffs":[]`)
}

func TestYAML_RoundTrips(t *testing.T) {
	t.Parallel()

	out, err := YAML(differentDoc())
	require.NoError(t, err)

	var back Document
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, differentDoc(), back)
	assert.Contains(t, string(out), "packageRoot: .")
}

func TestRenderer_Report(t *testing.T) {
	t.Parallel()

	id, err := pkgspec.Parse("demo@1.2.3")
	require.NoError(t, err)
	outcome := &pipeline.Outcome{
		Identifier:  id,
		Repository:  manifest.Repository{Type: "git", URL: "https://example.com/demo.git"},
		Version:     "1.2.3",
		Tag:         "1.2.3",
		PackageRoot: "packages/demo",
		Result:      treediff.Result{Same: true, Diffs: []treediff.Record{}},
	}

	tests := []struct {
		format config.Format
		want   string
	}{
		{config.FormatText, "the same"},
		{config.FormatJSON, `"packageRoot":"packages/demo"`},
		{config.FormatYAML, "repository: https://example.com/demo.git"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			r, err := New(&buf, tt.format, false)
			require.NoError(t, err)
			require.NoError(t, r.Report(outcome))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := New(&bytes.Buffer{}, "html", true)
	require.ErrorIs(t, err, config.ErrInvalidFormat)
}
