package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mvbarbosa/judagg/internal/datajud"
	"github.com/mvbarbosa/judagg/internal/gazette"
	"github.com/mvbarbosa/judagg/internal/index"
	"github.com/mvbarbosa/judagg/internal/relevance"
)

func testRecords() []gazette.Record {
	v1, v2 := 500000.0, 80000.0
	return []gazette.Record{
		{
			Number: "1000001-11.2024.8.26.0100", CaseType: "Inventário",
			Comarca: "São Paulo - Foro Central Cível", ComarcaCode: "0100",
			Value: &v1, HasProperty: true, IsActive: true,
			Tier: relevance.TierHighest, Score: 1.0,
		},
		{
			Number: "1000002-22.2024.8.26.0114", CaseType: "Divórcio Litigioso",
			Comarca: "Campinas", ComarcaCode: "0114",
			Value: &v2, IsActive: true,
			Tier: relevance.TierMedium, Score: 0.5,
		},
		{
			Number: "1000003-33.2023.8.26.0577", CaseType: "Inventário",
			Comarca: "São José dos Campos", ComarcaCode: "0577",
			Tier: relevance.TierLow, Score: 0.2,
		},
	}
}

func newStoreWithSnapshot(t *testing.T) *index.Store {
	t.Helper()
	store := index.NewStore(index.Config{})
	snap := &index.Snapshot{
		Records:     testRecords(),
		SourceDocs:  []string{"dje-2024-06-01"},
		GeneratedAt: time.Now(),
	}
	if err := store.Publish(snap); err != nil {
		t.Fatal(err)
	}
	return store
}

type fakeRebuilder struct {
	snap *index.Snapshot
	err  error
}

func (f *fakeRebuilder) Reindex(context.Context) (*index.Snapshot, index.Summary, error) {
	if f.err != nil {
		return nil, index.Summary{}, f.err
	}
	return f.snap, index.Summary{DocumentsListed: 1, DocumentsProcessed: 1, RecordsMerged: len(f.snap.Records)}, nil
}

func (f *fakeRebuilder) Refresh(ctx context.Context) (*index.Snapshot, index.Summary, error) {
	return f.Reindex(ctx)
}

type fakeProvider struct {
	records []datajud.ProviderRecord
	cached  bool
	err     error
}

func (f *fakeProvider) Records(context.Context, string, string) ([]datajud.ProviderRecord, bool, error) {
	return f.records, f.cached, f.err
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestSearchFilters(t *testing.T) {
	h := NewServer(newStoreWithSnapshot(t), nil, nil, nil, nil)

	rr := get(t, h, "/v1/search?tipo=Inventário")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", body["total"])
	}

	rr = get(t, h, "/v1/search?com_imovel=true&ativos=true")
	if total := decode(t, rr)["total"].(float64); total != 1 {
		t.Errorf("property+active total = %v, want 1", total)
	}

	rr = get(t, h, "/v1/search?comarca=São+Paulo")
	if total := decode(t, rr)["total"].(float64); total != 1 {
		t.Errorf("capital aggregate total = %v, want 1", total)
	}

	rr = get(t, h, "/v1/search?valor_min=100000")
	if total := decode(t, rr)["total"].(float64); total != 1 {
		t.Errorf("valor_min total = %v, want 1", total)
	}
}

func TestSearchValidation(t *testing.T) {
	h := NewServer(newStoreWithSnapshot(t), nil, nil, nil, nil)

	for _, path := range []string{
		"/v1/search?valor_min=abc",
		"/v1/search?data_inicio=01/06/2024",
		"/v1/search?ordenar=score",
	} {
		rr := get(t, h, path)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rr.Code)
		}
	}
}

func TestSearchBeforeIndexBuilt(t *testing.T) {
	h := NewServer(index.NewStore(index.Config{}), nil, nil, nil, nil)
	rr := get(t, h, "/v1/search")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	body := decode(t, rr)
	errInfo := body["error"].(map[string]any)
	if errInfo["code"] != index.CodeNotBuilt {
		t.Errorf("code = %v", errInfo["code"])
	}
}

func TestSearchServesStaleSnapshot(t *testing.T) {
	now := time.Date(2025, 11, 14, 12, 0, 0, 0, time.UTC)
	store := index.NewStore(index.Config{Clock: func() time.Time { return now }})
	if err := store.Publish(&index.Snapshot{Records: testRecords(), GeneratedAt: now}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(25 * time.Hour)

	h := NewServer(store, nil, nil, nil, nil)
	rr := get(t, h, "/v1/search")
	if rr.Code != http.StatusOK {
		t.Fatalf("stale snapshot should still serve, status = %d", rr.Code)
	}
	body := decode(t, rr)
	if body["desatualizado"] != true {
		t.Error("stale response should carry desatualizado=true")
	}
}

func TestStatsGrouping(t *testing.T) {
	h := NewServer(newStoreWithSnapshot(t), nil, nil, nil, nil)
	rr := get(t, h, "/v1/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	byType := body["por_tipo"].(map[string]any)
	if byType["Inventário"].(float64) != 2 || byType["Divórcio Litigioso"].(float64) != 1 {
		t.Errorf("por_tipo = %v", byType)
	}
	byTier := body["por_relevancia"].(map[string]any)
	if byTier[string(relevance.TierHighest)].(float64) != 1 {
		t.Errorf("por_relevancia = %v", byTier)
	}
}

func TestReindexEndpoint(t *testing.T) {
	store := newStoreWithSnapshot(t)
	snap, err := store.Current()
	if err != nil {
		t.Fatal(err)
	}
	h := NewServer(store, &fakeRebuilder{snap: snap}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/reindex", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["job_id"] == "" || body["resumo"] == nil {
		t.Errorf("body = %v", body)
	}

	rr = get(t, h, "/v1/reindex")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET reindex status = %d, want 405", rr.Code)
	}
}

func TestReindexNoDocuments(t *testing.T) {
	rebuilder := &fakeRebuilder{err: &index.Error{Code: index.CodeNoDocuments, Message: "nenhum documento"}}
	h := NewServer(newStoreWithSnapshot(t), rebuilder, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/reindex", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
}

func TestProviderSearch(t *testing.T) {
	provider := &fakeProvider{
		records: []datajud.ProviderRecord{{Number: "1234567-89.2024.8.26.0100", Tribunal: "TJSP"}},
		cached:  true,
	}
	h := NewServer(newStoreWithSnapshot(t), nil, provider, nil, nil)

	rr := get(t, h, "/v1/datajud/search?tribunal=TJSP&tipo=Inventário")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["total"].(float64) != 1 || body["cache"] != true {
		t.Errorf("body = %v", body)
	}

	rr = get(t, h, "/v1/datajud/search?tribunal=TJSP")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing tipo: status = %d, want 400", rr.Code)
	}

	provider.err = errors.New("upstream down")
	rr = get(t, h, "/v1/datajud/search?tribunal=TJSP&tipo=Inventário")
	if rr.Code != http.StatusBadGateway {
		t.Errorf("provider failure: status = %d, want 502", rr.Code)
	}
}

func TestProviderSearchDisabled(t *testing.T) {
	h := NewServer(newStoreWithSnapshot(t), nil, nil, nil, nil)
	rr := get(t, h, "/v1/datajud/search?tribunal=TJSP&tipo=Inventário")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestCacheStatusEndpoint(t *testing.T) {
	cache := datajud.NewCache(t.TempDir(), 24*time.Hour, nil)
	if err := cache.Write("TJSP", "Inventário", nil); err != nil {
		t.Fatal(err)
	}
	h := NewServer(newStoreWithSnapshot(t), nil, nil, cache, nil)

	rr := get(t, h, "/v1/cache/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	if len(body["caches"].([]any)) != 1 {
		t.Errorf("caches = %v", body["caches"])
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(index.NewStore(index.Config{}), nil, nil, nil, nil)
	rr := get(t, h, "/v1/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	if body["indexado"] != false || body["estado_indice"] != index.CodeNotBuilt {
		t.Errorf("body = %v", body)
	}

	h = NewServer(newStoreWithSnapshot(t), nil, nil, nil, nil)
	body = decode(t, get(t, h, "/v1/health"))
	if body["indexado"] != true {
		t.Errorf("body = %v", body)
	}
}
