package typegen

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/openapi"
)

// FileExtension is the extension of every generated artifact.
const FileExtension = ".ts"

var pathParam = regexp.MustCompile(`\{([^{}/]+)\}`)

// ArtifactDir maps a path template to the slash-separated directory of its
// artifact, relative to the output root: "/users/{id}/orders" becomes
// "users/[id]/orders".
func ArtifactDir(template string) (string, error) {
	dir := strings.TrimPrefix(template, "/")
	dir = pathParam.ReplaceAllString(dir, "[$1]")
	dir = strings.TrimSuffix(dir, "/")
	for _, seg := range strings.Split(dir, "/") {
		if seg == "." || seg == ".." {
			return "", errors.Mark(
				errors.Newf("path %q contains a %q segment", template, seg),
				errors.ErrFileSystem,
			)
		}
	}
	return dir, nil
}

// ArtifactFileName returns "<method><id>.ts".
func ArtifactFileName(method, id string) string {
	return strings.ToLower(method) + id + FileExtension
}

// Artifact is the rendered output for one operation.
type Artifact struct {
	Operation openapi.Operation
	Dir       string // slash-separated, relative to the output root
	FileName  string
	Content   string
}

// NewArtifact lays out the artifact for op. Declarations are rendered in the
// order given.
func NewArtifact(op openapi.Operation, decls []Declaration) (*Artifact, error) {
	dir, err := ArtifactDir(op.Path)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Operation: op,
		Dir:       dir,
		FileName:  ArtifactFileName(op.Method, op.ID),
		Content:   RenderDeclarations(decls),
	}, nil
}

// RelPath returns the slash-separated artifact path below the output root.
func (a *Artifact) RelPath() string {
	return path.Join(a.Dir, a.FileName)
}

// Path returns the artifact's location on disk below root.
func (a *Artifact) Path(root string) string {
	return filepath.Join(root, filepath.FromSlash(a.Dir), a.FileName)
}

// Write creates the artifact's directory if needed and overwrites the file.
// It returns the path written.
func (a *Artifact) Write(root string) (string, error) {
	dir := filepath.Join(root, filepath.FromSlash(a.Dir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "creating directory %s", dir), errors.ErrFileSystem)
	}
	p := filepath.Join(dir, a.FileName)
	if err := os.WriteFile(p, []byte(a.Content), 0o644); err != nil {
		return "", errors.Mark(errors.Wrapf(err, "writing %s", p), errors.ErrFileSystem)
	}
	return p, nil
}
