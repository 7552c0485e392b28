package datajud

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mvbarbosa/judagg/internal/relevance"
)

const searchResponse = `{
  "hits": {
    "total": {"value": 3},
    "hits": [
      {
        "_source": {
          "numeroProcesso": "10012345620248260100",
          "classe": {"nome": "Inventário"},
          "orgaoJulgador": {"nomeOrgao": "Foro Central Cível"},
          "valorCausa": 350000.50,
          "dataAjuizamento": "2025-10-01T00:00:00Z",
          "movimentos": [{"nome": "Distribuição"}, {"nome": "Conclusão"}]
        }
      },
      {
        "_source": {
          "numeroProcesso": "20098765420228260114",
          "classe": {"nome": "Inventário"},
          "dataAjuizamento": "2022-03-15T00:00:00Z"
        }
      },
      {
        "_source": {
          "classe": {"nome": "Inventário"}
        }
      }
    ]
  }
}`

func testClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 11, 14, 12, 0, 0, 0, time.UTC) }
}

func TestParseHits(t *testing.T) {
	c := NewClient("", "", nil, nil)
	c.clock = testClock()

	records := c.parseHits([]byte(searchResponse), "TJSP", "Inventário")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (hit without case number dropped)", len(records))
	}

	first := records[0]
	if first.Number != "1001234-56.2024.8.26.0100" {
		t.Errorf("Number = %q, want canonical form", first.Number)
	}
	if first.Comarca != "Foro Central Cível" {
		t.Errorf("Comarca = %q", first.Comarca)
	}
	if first.Value == nil || *first.Value != 350000.50 {
		t.Errorf("Value = %v", first.Value)
	}
	if first.Movements != 2 {
		t.Errorf("Movements = %d, want 2", first.Movements)
	}
	// Recent filing with movements: full score.
	if first.Tier != relevance.TierHigh || first.Score != 1.0 {
		t.Errorf("Tier=%s Score=%v, want Alta 1.0", first.Tier, first.Score)
	}

	second := records[1]
	// No named organ: the comarca falls back to the forum code table.
	if second.Comarca != "Campinas" {
		t.Errorf("fallback Comarca = %q, want Campinas", second.Comarca)
	}
	if second.Value != nil {
		t.Errorf("missing valorCausa should stay nil, got %v", second.Value)
	}
	// Old filing, no movements: base score only.
	if second.Tier != relevance.TierMedium || second.Score != 0.5 {
		t.Errorf("Tier=%s Score=%v, want Média 0.5", second.Tier, second.Score)
	}
}

func TestParseHitsComarcaFallbackPerTribunal(t *testing.T) {
	c := NewClient("", "", nil, nil)
	c.clock = testClock()

	// TJBA forum codes collide with TJSP's numerically; the fallback
	// must resolve within the requested tribunal's numbering.
	const blob = `{"hits":{"hits":[{"_source":{"numeroProcesso":"00012345620258050001","classe":{"nome":"Inventário"}}}]}}`
	records := c.parseHits([]byte(blob), "TJBA", "Inventário")
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Comarca != "Salvador" {
		t.Errorf("TJBA fallback Comarca = %q, want Salvador", records[0].Comarca)
	}

	records = c.parseHits([]byte(blob), "TJPR", "Inventário")
	if records[0].Comarca != "Código 0001" {
		t.Errorf("unmapped tribunal Comarca = %q, want placeholder", records[0].Comarca)
	}
}

func TestScoreHitRecencyBands(t *testing.T) {
	c := NewClient("", "", nil, nil)
	c.clock = testClock()
	now := c.clock()

	cases := []struct {
		name      string
		filed     time.Time
		movements int
		tier      relevance.Tier
		score     float64
	}{
		{"recent with movements", now.AddDate(0, -2, 0), 3, relevance.TierHigh, 1.0},
		{"recent without movements", now.AddDate(0, -2, 0), 0, relevance.TierHigh, 0.8},
		{"under a year", now.AddDate(0, -8, 0), 0, relevance.TierHigh, 0.7},
		{"old with movements", now.AddDate(-2, 0, 0), 1, relevance.TierHigh, 0.7},
		{"old and idle", now.AddDate(-2, 0, 0), 0, relevance.TierMedium, 0.5},
		{"undated", time.Time{}, 0, relevance.TierMedium, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, score := c.scoreHit(ProviderRecord{FilingDate: tc.filed, Movements: tc.movements})
			if tier != tc.tier || score != tc.score {
				t.Errorf("got tier=%s score=%v, want tier=%s score=%v", tier, score, tc.tier, tc.score)
			}
		})
	}
}

func TestSearchPaging(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/api_publica_tjsp/_search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "APIKey test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(searchResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", srv.Client(), nil)
	c.clock = testClock()

	records, err := c.Search(t.Context(), "TJSP", "Inventário", 250)
	if err != nil {
		t.Fatal(err)
	}
	// Each page returns fewer hits than requested, so paging stops
	// after the first response.
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", srv.Client(), nil)
	if _, err := c.Search(t.Context(), "TJSP", "Inventário", 10); err == nil {
		t.Fatal("expected error on upstream 502")
	}
}
