// Package fs provides filesystem access for repodocs: extracting documents
// from working trees and exporting stored documents to disk.
package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/repodocs"
)

// Ensure Extractor implements repodocs.Extractor at compile time.
var _ repodocs.Extractor = (*Extractor)(nil)

// DefaultExtensions are matched when an Extractor has none configured.
var DefaultExtensions = []string{".md"}

// Skip reasons recorded in repodocs.SkippedFile.
var (
	ErrNotRegular  = errors.New("not a regular file")
	ErrSymlink     = errors.New("symbolic link")
	ErrTooLarge    = errors.New("file exceeds size limit")
	ErrInvalidUTF8 = errors.New("content is not valid UTF-8")
)

// Extractor walks working trees for documentation files.
type Extractor struct {
	// Extensions are matched case-insensitively against file name suffixes.
	Extensions []string

	// MaxFileSize skips larger files. Zero means no limit.
	MaxFileSize int64

	// Converter turns .html and .htm files into Markdown when those
	// extensions are configured. Without it they are stored as-is.
	Converter repodocs.Converter
}

// NewExtractor creates a new Extractor matching DefaultExtensions.
func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) extensions() []string {
	if len(e.Extensions) == 0 {
		return DefaultExtensions
	}
	exts := make([]string, len(e.Extensions))
	for i, ext := range e.Extensions {
		exts[i] = strings.ToLower(ext)
	}
	return exts
}

func matchesExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Extract discovers qualifying files under tree.Root, sorts them and reads
// them one at a time as the sequence is consumed.
func (e *Extractor) Extract(ctx context.Context, tree *repodocs.WorkingTree) *repodocs.Extraction {
	var x *repodocs.Extraction
	x = repodocs.NewExtraction(func(emit func(*repodocs.RawDocument) bool, skip func(repodocs.SkippedFile)) error {
		paths, err := e.discover(tree.Root, skip)
		if err != nil {
			return err
		}
		x.SetCollisions(collisions(paths))

		for _, rel := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := e.read(tree.Root, rel)
			if err != nil {
				skip(repodocs.SkippedFile{Path: rel, Reason: err})
				continue
			}
			if !emit(&repodocs.RawDocument{Path: rel, Content: content}) {
				return nil
			}
		}
		return nil
	})
	return x
}

// discover returns the sorted, slash-separated relative paths of candidate
// files. Candidates that cannot be documents are reported through skip.
func (e *Extractor) discover(root string, skip func(repodocs.SkippedFile)) ([]string, error) {
	exts := e.extensions()
	var paths []string

	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			rel := relPath(root, path)
			skip(repodocs.SkippedFile{Path: rel, Reason: repodocs.WrapError(repodocs.EEXTRACT, err, "failed to read %s", rel)})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if path != root && matchesExtension(d.Name(), exts) {
				skip(repodocs.SkippedFile{Path: relPath(root, path), Reason: ErrNotRegular})
			}
			return nil
		}

		if !matchesExtension(d.Name(), exts) {
			return nil
		}

		rel := relPath(root, path)
		switch {
		case d.Type()&iofs.ModeSymlink != 0:
			skip(repodocs.SkippedFile{Path: rel, Reason: ErrSymlink})
			return nil
		case !d.Type().IsRegular():
			skip(repodocs.SkippedFile{Path: rel, Reason: ErrNotRegular})
			return nil
		}

		if err := repodocs.ValidatePath(rel); err != nil {
			skip(repodocs.SkippedFile{Path: rel, Reason: repodocs.WrapError(repodocs.EEXTRACT, err, "unsupported path %s", rel)})
			return nil
		}

		if e.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				skip(repodocs.SkippedFile{Path: rel, Reason: repodocs.WrapError(repodocs.EEXTRACT, err, "failed to stat %s", rel)})
				return nil
			}
			if info.Size() > e.MaxFileSize {
				skip(repodocs.SkippedFile{Path: rel, Reason: ErrTooLarge})
				return nil
			}
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, repodocs.WrapError(repodocs.EIO, err, "failed to walk %s", root)
	}

	sort.Strings(paths)
	return paths, nil
}

// read loads one file, validating and converting its content.
func (e *Extractor) read(root, rel string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, repodocs.WrapError(repodocs.EEXTRACT, err, "failed to read %s", rel)
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidUTF8
	}

	if e.Converter != nil && isHTML(rel) {
		md, err := e.Converter.Convert(string(content))
		if err != nil {
			return nil, repodocs.WrapError(repodocs.EEXTRACT, err, "failed to convert %s", rel)
		}
		content = []byte(md)
	}
	return content, nil
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// collisions groups paths equal under case folding.
func collisions(paths []string) [][]string {
	byKey := make(map[string][]string)
	var keys []string
	for _, p := range paths {
		key := strings.ToLower(p)
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], p)
	}

	var groups [][]string
	for _, key := range keys {
		if len(byKey[key]) > 1 {
			groups = append(groups, byKey[key])
		}
	}
	return groups
}
