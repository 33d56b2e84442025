package typegen

import (
	"io/fs"
	"os"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tsgonest/apitypes/internal/errors"
)

// Check compares the artifact with the file already on disk below root. A
// missing file is stale. For a stale artifact, diff shows the lines that
// would change.
func Check(a *Artifact, root string) (stale bool, diff string, err error) {
	p := a.Path(root)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return true, LineDiff("", a.Content), nil
	}
	if err != nil {
		return false, "", errors.Mark(errors.Wrapf(err, "reading %s", p), errors.ErrFileSystem)
	}
	if string(data) == a.Content {
		return false, "", nil
	}
	return true, LineDiff(string(data), a.Content), nil
}

// LineDiff renders a line-level diff from old to new. Removed lines are
// prefixed with "- ", added ones with "+ ", unchanged ones with two spaces.
func LineDiff(old, new string) string {
	dmp := diffpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "- "
		case diffpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
