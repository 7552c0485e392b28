package datajud

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultTTL is how long a cached provider answer stays trustworthy.
const DefaultTTL = 24 * time.Hour

// Cache stores one JSON file per (tribunal, caseType) key. Keys
// partition the space, so a write is a full overwrite of its own file
// and never touches other keys.
type Cache struct {
	dir   string
	ttl   time.Duration
	clock func() time.Time
}

// NewCache builds a cache rooted at dir. Zero ttl means DefaultTTL and
// a nil clock means time.Now.
func NewCache(dir string, ttl time.Duration, clock func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache{dir: dir, ttl: ttl, clock: clock}
}

func (c *Cache) path(tribunal, caseType string) string {
	name := fmt.Sprintf("%s_%s.json", tribunal, strings.ReplaceAll(caseType, " ", "_"))
	return filepath.Join(c.dir, name)
}

// Read returns the cached entry for a key. fresh reports whether the
// entry is inside the freshness window; a stale entry is still
// returned so callers can fall back to it when the provider is down.
// A nil entry means the key was never cached (or is unreadable).
func (c *Cache) Read(tribunal, caseType string) (entry *Entry, fresh bool) {
	blob, err := os.ReadFile(c.path(tribunal, caseType))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(blob, &e); err != nil {
		return nil, false
	}
	return &e, c.clock().Sub(e.UpdatedAt) <= c.ttl
}

// Write overwrites the entry for a key with a complete replacement
// payload and a fresh timestamp.
func (c *Cache) Write(tribunal, caseType string, records []ProviderRecord) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	e := Entry{
		Tribunal:  tribunal,
		CaseType:  caseType,
		Total:     len(records),
		UpdatedAt: c.clock(),
		Records:   records,
	}
	blob, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(tribunal, caseType), blob, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Sweep deletes entries older than the TTL and returns how many were
// removed. Unreadable files are left alone.
func (c *Cache) Sweep() (int, error) {
	files, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list cache dir: %w", err)
	}
	removed := 0
	now := c.clock()
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		blob, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(blob, &e); err != nil {
			continue
		}
		if now.Sub(e.UpdatedAt) > c.ttl {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Status reports every entry with its size and freshness, newest first.
func (c *Cache) Status() (Status, error) {
	st := Status{TTL: c.ttl}
	files, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("list cache dir: %w", err)
	}
	now := c.clock()
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		blob, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(blob, &e); err != nil {
			continue
		}
		sizeKB := float64(len(blob)) / 1024
		st.Entries = append(st.Entries, KeyStatus{
			File:      f.Name(),
			Tribunal:  e.Tribunal,
			CaseType:  e.CaseType,
			Total:     e.Total,
			UpdatedAt: e.UpdatedAt,
			SizeKB:    sizeKB,
			Fresh:     now.Sub(e.UpdatedAt) <= c.ttl,
		})
		st.TotalKB += sizeKB
	}
	sort.Slice(st.Entries, func(i, j int) bool {
		return st.Entries[i].UpdatedAt.After(st.Entries[j].UpdatedAt)
	})
	return st, nil
}
