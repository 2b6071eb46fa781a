package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/repodocs"
	"gopkg.in/yaml.v3"
)

// Ensure FileStore implements repodocs.DocumentWriter at compile time.
var _ repodocs.DocumentWriter = (*FileStore)(nil)

// FileStore exports documents as Markdown files with atomic update semantics.
// Documents are saved to a temporary directory, then moved atomically on Commit.
type FileStore struct {
	baseDir string
	name    string
}

// NewFileStore creates a new FileStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes doc under its repository-relative path.
func (s *FileStore) Save(ctx context.Context, doc *repodocs.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	relPath := filepath.FromSlash(doc.Path)
	if !filepath.IsLocal(relPath) {
		return repodocs.Errorf(repodocs.EINVALID, "path traversal in %q", doc.Path)
	}

	fullPath := filepath.Join(s.tempDir(), relPath)

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to create directory for %s", doc.Path)
	}

	if err := os.WriteFile(fullPath, []byte(FormatDocument(doc)), 0o644); err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to write %s", doc.Path)
	}
	return nil
}

// frontmatter is the YAML header of an exported document.
type frontmatter struct {
	Repo    string `yaml:"repo"`
	Path    string `yaml:"path"`
	Version string `yaml:"version"`
	Updated string `yaml:"updated,omitempty"`
}

// FormatDocument formats a document with YAML frontmatter.
func FormatDocument(doc *repodocs.Document) string {
	fm := frontmatter{Repo: doc.Repo, Path: doc.Path, Version: doc.Version.String()}
	if !doc.UpdatedAt.IsZero() {
		fm.Updated = doc.UpdatedAt.Format("2006-01-02")
	}
	// Marshaling a struct of strings cannot fail.
	header, _ := yaml.Marshal(fm)

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(doc.Content)
	return b.String()
}

// Commit replaces the output directory with everything saved so far.
func (s *FileStore) Commit() error {
	// Commit of an empty export still produces an empty directory.
	if err := os.MkdirAll(s.tempDir(), 0o755); err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to create export directory")
	}

	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to remove previous export")
	}

	// Atomically rename temp to final
	if err := os.Rename(s.tempDir(), s.finalDir()); err != nil {
		return repodocs.WrapError(repodocs.EIO, err, "failed to move export into place")
	}

	return nil
}

// Abort discards everything saved so far.
func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
