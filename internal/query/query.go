// Package query applies declarative filters and sort orders over an
// already-loaded record set. It is stateless and read-only: any number
// of queries may run concurrently against the same snapshot.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/mvbarbosa/judagg/internal/comarca"
	"github.com/mvbarbosa/judagg/internal/gazette"
)

// SortKey selects the ordering of results.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortDate      SortKey = "date"
	SortValue     SortKey = "value"
)

// Filter is one declarative query over a record set. Zero values mean
// "no constraint".
type Filter struct {
	CaseTypes    []string
	Comarcas     []string
	MinValue     *float64
	MaxValue     *float64
	DateFrom     time.Time
	DateTo       time.Time
	ActiveOnly   bool
	PropertyOnly bool

	SortBy     SortKey
	Descending bool

	// Offset/Limit paginate strictly after filtering and sorting.
	Offset int
	Limit  int
}

// Run filters, sorts and paginates records. Filters apply in a fixed
// order (type, comarca, value, date, activity, property) so results and
// short-circuiting behavior are deterministic. The input slice is never
// mutated.
func Run(records []gazette.Record, f Filter) []gazette.Record {
	out := filter(records, f)
	sortRecords(out, f.SortBy, f.Descending)
	return paginate(out, f.Offset, f.Limit)
}

func filter(records []gazette.Record, f Filter) []gazette.Record {
	types := map[string]struct{}{}
	for _, t := range f.CaseTypes {
		types[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	cf := comarca.NewFilter(f.Comarcas)
	dateBound := !f.DateFrom.IsZero() || !f.DateTo.IsZero()

	out := make([]gazette.Record, 0, len(records))
	for _, rec := range records {
		if len(types) > 0 {
			if _, ok := types[strings.ToLower(rec.CaseType)]; !ok {
				continue
			}
		}
		if !cf.Matches(rec.ComarcaCode, rec.Comarca) {
			continue
		}
		if !valueInRange(rec.Value, f.MinValue, f.MaxValue) {
			continue
		}
		if dateBound && !dateInRange(rec.SourceDate, f.DateFrom, f.DateTo) {
			continue
		}
		if f.ActiveOnly && !rec.IsActive {
			continue
		}
		if f.PropertyOnly && !rec.HasProperty {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func valueInRange(v, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	if v == nil {
		return false
	}
	if min != nil && *v < *min {
		return false
	}
	if max != nil && *v > *max {
		return false
	}
	return true
}

// dateInRange excludes records without a source date whenever any date
// bound is given.
func dateInRange(d, from, to time.Time) bool {
	if d.IsZero() {
		return false
	}
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

func sortRecords(records []gazette.Record, key SortKey, desc bool) {
	switch key {
	case SortDate:
		sort.SliceStable(records, func(i, j int) bool {
			if desc {
				return records[i].SourceDate.After(records[j].SourceDate)
			}
			return records[i].SourceDate.Before(records[j].SourceDate)
		})
	case SortValue:
		// Absent values rank below every real amount, negative ones
		// included: last in descending order, first in ascending.
		sort.SliceStable(records, func(i, j int) bool {
			vi, vj := records[i].Value, records[j].Value
			if vi == nil || vj == nil {
				if desc {
					return vj == nil && vi != nil
				}
				return vi == nil && vj != nil
			}
			if desc {
				return *vi > *vj
			}
			return *vi < *vj
		})
	case SortRelevance, "":
		sort.SliceStable(records, func(i, j int) bool {
			if desc {
				return records[i].Score > records[j].Score
			}
			return records[i].Score < records[j].Score
		})
	}
}

func paginate(records []gazette.Record, offset, limit int) []gazette.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []gazette.Record{}
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

// GroupCounts aggregates a filtered record list by a field for the
// stats endpoint; grouping only, display formatting is the caller's
// concern.
func GroupCounts(records []gazette.Record, field func(gazette.Record) string) map[string]int {
	out := map[string]int{}
	for _, rec := range records {
		out[field(rec)]++
	}
	return out
}
