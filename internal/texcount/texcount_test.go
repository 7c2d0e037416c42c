package texcount_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zjuthesis/entrypoint/internal/testutils/golden"
	"github.com/zjuthesis/entrypoint/internal/texcount"
)

func TestCountWords(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string

		wantCN int
		wantEN int
	}{
		"Plain_prose":                         {content: "Hello brave new world today.", wantEN: 5},
		"Chinese_characters_count_one_each":   {content: "你好世界", wantCN: 4},
		"Mixed_chinese_and_english":           {content: "系统 design", wantCN: 2, wantEN: 1},
		"Comments_are_ignored":                {content: "text % comment words here\n", wantEN: 1},
		"Inline_math_is_ignored":              {content: "before $x+y$ after", wantEN: 2},
		"Bracket_display_math_is_ignored":     {content: `a \[ x = y \] b`, wantEN: 2},
		"Dollar_display_math_is_ignored":      {content: "a $$\nx = y\n$$ b", wantEN: 2},
		"Structural_command_args_are_ignored": {content: `\cite{someone2024} result`, wantEN: 1},
		"Prose_command_args_are_kept":         {content: `\textbf{bold} word`, wantEN: 2},

		"Empty_content": {content: ""},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "fragment.tex")
			writeFixture(t, path, tc.content)

			node := texcount.Count(path)
			require.Empty(t, node.Err, "Count should not report an error")
			require.Equal(t, tc.wantCN, node.CN, "Chinese character count should match")
			require.Equal(t, tc.wantEN, node.EN, "Latin word count should match")
		})
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	root := texcount.Count(filepath.Join("testdata", "thesis", "content.tex"))

	require.Empty(t, root.Err, "Root file should be readable")
	// Three distinct references: the duplicated one is only counted once.
	require.Len(t, root.Children, 3, "Root should have one child per distinct reference")

	missing := root.Children[2]
	require.Equal(t, "file not found", missing.Err, "Unresolvable reference should carry an error")
	require.Zero(t, missing.Total(), "Unresolvable reference should count nothing")

	cn, en := root.Totals()
	require.Equal(t, 6, cn, "Accumulated Chinese character count should match")
	require.Equal(t, 22, en, "Accumulated latin word count should match")
}

func TestCountMissingRoot(t *testing.T) {
	t.Parallel()

	node := texcount.Count(filepath.Join("testdata", "does-not-exist.tex"))
	require.Equal(t, "file not found", node.Err, "Missing root should carry an error")
	require.Zero(t, node.Total(), "Missing root should count nothing")
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		maxDepth int
	}{
		"Full_tree":     {},
		"Depth_limited": {maxDepth: 1},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := texcount.Count(filepath.Join("testdata", "thesis", "content.tex"))

			var out strings.Builder
			texcount.WriteReport(&out, root, tc.maxDepth)

			golden.CheckOrUpdate(t, out.String())
		})
	}
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err, "Setup: could not write fixture")
}
