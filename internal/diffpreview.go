package internal

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangePreview renders a compact line-level diff of the corpus file
// before and after a cycle, for verbose runs. Unchanged spans are
// collapsed to a count so large corpora stay readable.
func ChangePreview(before, after string) string {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		count := strings.Count(strings.TrimSuffix(d.Text, "\n"), "\n") + 1
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writePrefixed(&sb, "+", d.Text)
		case diffmatchpatch.DiffDelete:
			writePrefixed(&sb, "-", d.Text)
		case diffmatchpatch.DiffEqual:
			fmt.Fprintf(&sb, "  (%d unchanged)\n", count)
		}
	}
	return sb.String()
}

func writePrefixed(sb *strings.Builder, prefix, text string) {
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		fmt.Fprintf(sb, "%s%s\n", prefix, line)
	}
}
