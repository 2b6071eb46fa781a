package repodocs

import (
	"context"
	"iter"
)

// Extractor walks working trees for documents.
type Extractor interface {
	// Extract returns the qualifying documents of tree as a lazy sequence.
	// Emission order is deterministic for a fixed tree.
	Extract(ctx context.Context, tree *WorkingTree) *Extraction
}

// SkippedFile records a file the extractor passed over.
type SkippedFile struct {
	Path   string
	Reason error
}

// Extraction is a one-shot sequence of raw documents together with the
// files skipped while producing it. Skipped and Collisions are complete
// once All has been fully consumed.
type Extraction struct {
	run        func(emit func(*RawDocument) bool, skip func(SkippedFile)) error
	consumed   bool
	skipped    []SkippedFile
	collisions [][]string
}

// NewExtraction returns an Extraction driven by run. run calls emit for each
// document, stopping when emit returns false, and skip for each skipped file.
// A non-nil return from run ends the sequence with that error.
func NewExtraction(run func(emit func(*RawDocument) bool, skip func(SkippedFile)) error) *Extraction {
	return &Extraction{run: run}
}

// ExtractionOf returns an Extraction that yields docs.
func ExtractionOf(docs ...*RawDocument) *Extraction {
	return NewExtraction(func(emit func(*RawDocument) bool, _ func(SkippedFile)) error {
		for _, doc := range docs {
			if !emit(doc) {
				return nil
			}
		}
		return nil
	})
}

// All yields each document. A fatal error is yielded once with a nil
// document. All may only be ranged over once.
func (x *Extraction) All() iter.Seq2[*RawDocument, error] {
	return func(yield func(*RawDocument, error) bool) {
		if x.consumed {
			yield(nil, Errorf(EINVALID, "extraction already consumed"))
			return
		}
		x.consumed = true

		stopped := false
		err := x.run(func(doc *RawDocument) bool {
			if stopped {
				return false
			}
			if !yield(doc, nil) {
				stopped = true
				return false
			}
			return true
		}, func(s SkippedFile) {
			x.skipped = append(x.skipped, s)
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// Skipped returns the files skipped so far.
func (x *Extraction) Skipped() []SkippedFile {
	return x.skipped
}

// Collisions returns groups of emitted paths that differ only by case.
func (x *Extraction) Collisions() [][]string {
	return x.collisions
}

// SetCollisions records case-insensitive path collisions. Extractors call it
// before emitting documents.
func (x *Extraction) SetCollisions(groups [][]string) {
	x.collisions = groups
}
