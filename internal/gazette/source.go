package gazette

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DirSource reads gazette editions from a directory of extracted page
// text. Each edition is either a single `<id>.txt` file (one page) or
// a `<id>/` subdirectory whose .txt files are the pages in name order.
// Editions list in lexicographic name order, which makes the dedup
// tiebreak stable across runs as long as IDs sort by date (the
// `dje-AAAA-MM-DD` convention does).
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List returns edition IDs in name order.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			ids = append(ids, name)
			continue
		}
		if strings.HasSuffix(name, ".txt") {
			ids = append(ids, strings.TrimSuffix(name, ".txt"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads one edition's pages. The edition date is parsed from a
// trailing AAAA-MM-DD in the ID when present.
func (s *DirSource) Load(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	doc := Document{ID: id, Date: dateFromID(id)}

	dirPath := filepath.Join(s.dir, id)
	if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			return Document{}, fmt.Errorf("list pages of %s: %w", id, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			blob, err := os.ReadFile(filepath.Join(dirPath, name))
			if err != nil {
				return Document{}, fmt.Errorf("read page %s of %s: %w", name, id, err)
			}
			doc.Pages = append(doc.Pages, string(blob))
		}
		return doc, nil
	}

	blob, err := os.ReadFile(filepath.Join(s.dir, id+".txt"))
	if err != nil {
		return Document{}, fmt.Errorf("read document %s: %w", id, err)
	}
	doc.Pages = []string{string(blob)}
	return doc, nil
}

// dateFromID recovers the edition date from IDs ending in AAAA-MM-DD.
func dateFromID(id string) time.Time {
	if len(id) < len("2006-01-02") {
		return time.Time{}
	}
	suffix := id[len(id)-len("2006-01-02"):]
	t, err := time.Parse("2006-01-02", suffix)
	if err != nil {
		return time.Time{}
	}
	return t
}
