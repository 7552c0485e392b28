// Package index accumulates deduplicated gazette records into
// versioned snapshots and keeps them fresh. Dedup policy is
// first-seen-wins: the earliest-processed occurrence of a case number
// is kept whole, later occurrences are discarded, never field-merged.
package index

import (
	"time"

	"github.com/mvbarbosa/judagg/internal/gazette"
)

// Snapshot is one generation of the deduplicated record set.
type Snapshot struct {
	Records    []gazette.Record `json:"processos"`
	SourceDocs []string         `json:"documentos_origem"`
	// GeneratedAt stamps the generation; freshness is judged against
	// it, independent of record content.
	GeneratedAt time.Time `json:"data_indexacao"`
}

// SourceDocumentCount reports how many documents fed this generation.
func (s *Snapshot) SourceDocumentCount() int {
	return len(s.SourceDocs)
}

// HasDocument reports whether a document already fed this snapshot.
func (s *Snapshot) HasDocument(id string) bool {
	for _, d := range s.SourceDocs {
		if d == id {
			return true
		}
	}
	return false
}

// Merge appends incoming records to existing ones under
// first-seen-wins: a number already present keeps its existing record
// untouched. Input order is preserved, so callers that feed documents
// in acquisition order get reproducible results. The returned slice is
// freshly allocated.
func Merge(existing, incoming []gazette.Record) []gazette.Record {
	out := make([]gazette.Record, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, rec := range existing {
		if _, dup := seen[rec.Number]; dup {
			continue
		}
		seen[rec.Number] = struct{}{}
		out = append(out, rec)
	}
	for _, rec := range incoming {
		if _, dup := seen[rec.Number]; dup {
			continue
		}
		seen[rec.Number] = struct{}{}
		out = append(out, rec)
	}
	return out
}
