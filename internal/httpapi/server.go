// Package httpapi exposes the indexed record set over a small JSON
// API. Handlers are thin: parsing and status mapping live here, all
// pipeline semantics live in index, query and datajud.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mvbarbosa/judagg/internal/datajud"
	"github.com/mvbarbosa/judagg/internal/gazette"
	"github.com/mvbarbosa/judagg/internal/index"
	"github.com/mvbarbosa/judagg/internal/query"
)

// Rebuilder triggers index runs. Satisfied by *index.Indexer.
type Rebuilder interface {
	Reindex(ctx context.Context) (*index.Snapshot, index.Summary, error)
	Refresh(ctx context.Context) (*index.Snapshot, index.Summary, error)
}

// ProviderSource answers upstream case-search queries. Satisfied by
// *datajud.Service.
type ProviderSource interface {
	Records(ctx context.Context, tribunal, caseType string) ([]datajud.ProviderRecord, bool, error)
}

type Server struct {
	store    index.API
	indexer  Rebuilder
	provider ProviderSource
	cache    *datajud.Cache
	logger   *zap.Logger
}

// NewServer builds the handler. provider and cache may be nil; their
// endpoints then answer 503.
func NewServer(store index.API, indexer Rebuilder, provider ProviderSource, cache *datajud.Cache, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, indexer: indexer, provider: provider, cache: cache, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", s.handleSearch)
	mux.HandleFunc("/v1/stats", s.handleStats)
	mux.HandleFunc("/v1/reindex", s.handleReindex)
	mux.HandleFunc("/v1/refresh", s.handleRefresh)
	mux.HandleFunc("/v1/datajud/search", s.handleProviderSearch)
	mux.HandleFunc("/v1/cache/status", s.handleCacheStatus)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusForCode(code string) int {
	switch code {
	case index.CodeValidation:
		return http.StatusBadRequest
	case index.CodeNotBuilt:
		return http.StatusConflict
	case index.CodeNoDocuments:
		return http.StatusUnprocessableEntity
	case index.CodeStale:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func writeIndexError(w http.ResponseWriter, err error) {
	var ie *index.Error
	if errors.As(err, &ie) {
		writeJSON(w, statusForCode(ie.Code), map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":      ie.Code,
				"message":   ie.Message,
				"transient": ie.Transient,
			},
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":      "internal",
			"message":   err.Error(),
			"transient": true,
		},
	})
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func parseInt(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return v
}

func parseBool(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "1" || v == "true" || v == "sim"
}

func parseFloatPtr(value string) (*float64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

func splitList(values []string) []string {
	var out []string
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if v := strings.TrimSpace(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// currentSnapshot resolves the active snapshot. A stale snapshot is
// still served; the caller surfaces staleness as a flag, not an error.
func (s *Server) currentSnapshot(w http.ResponseWriter) (*index.Snapshot, bool, bool) {
	snap, err := s.store.Current()
	if err != nil {
		if index.CodeOf(err) == index.CodeStale && snap != nil {
			return snap, true, true
		}
		writeIndexError(w, err)
		return nil, false, false
	}
	return snap, false, true
}

func (s *Server) parseFilter(r *http.Request) (query.Filter, error) {
	q := r.URL.Query()
	f := query.Filter{
		CaseTypes:    splitList(q["tipo"]),
		Comarcas:     splitList(q["comarca"]),
		ActiveOnly:   parseBool(q.Get("ativos")),
		PropertyOnly: parseBool(q.Get("com_imovel")),
		SortBy:       query.SortKey(q.Get("ordenar")),
		Descending:   parseBool(q.Get("desc")),
		Offset:       parseInt(q.Get("offset"), 0),
		Limit:        parseInt(q.Get("limit"), 0),
	}
	var err error
	if f.MinValue, err = parseFloatPtr(q.Get("valor_min")); err != nil {
		return f, newValidation("valor_min inválido")
	}
	if f.MaxValue, err = parseFloatPtr(q.Get("valor_max")); err != nil {
		return f, newValidation("valor_max inválido")
	}
	if f.DateFrom, err = parseDate(q.Get("data_inicio")); err != nil {
		return f, newValidation("data_inicio deve ser AAAA-MM-DD")
	}
	if f.DateTo, err = parseDate(q.Get("data_fim")); err != nil {
		return f, newValidation("data_fim deve ser AAAA-MM-DD")
	}
	switch f.SortBy {
	case "", query.SortRelevance, query.SortDate, query.SortValue:
	default:
		return f, newValidation("ordenar deve ser relevance, date ou value")
	}
	return f, nil
}

func newValidation(msg string) error {
	return &index.Error{Code: index.CodeValidation, Message: msg}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	f, err := s.parseFilter(r)
	if err != nil {
		writeIndexError(w, err)
		return
	}
	snap, stale, ok := s.currentSnapshot(w)
	if !ok {
		return
	}
	records := query.Run(snap.Records, f)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"total":          len(records),
		"processos":      records,
		"data_indexacao": snap.GeneratedAt,
		"desatualizado":  stale,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	f, err := s.parseFilter(r)
	if err != nil {
		writeIndexError(w, err)
		return
	}
	snap, stale, ok := s.currentSnapshot(w)
	if !ok {
		return
	}
	records := query.Run(snap.Records, f)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"total": len(records),
		"por_tipo": query.GroupCounts(records, func(rec gazette.Record) string {
			return rec.CaseType
		}),
		"por_relevancia": query.GroupCounts(records, func(rec gazette.Record) string {
			return string(rec.Tier)
		}),
		"por_comarca": query.GroupCounts(records, func(rec gazette.Record) string {
			return rec.Comarca
		}),
		"documentos_origem": snap.SourceDocumentCount(),
		"data_indexacao":    snap.GeneratedAt,
		"desatualizado":     stale,
	})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	s.runIndexing(w, r, s.indexer.Reindex)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	s.runIndexing(w, r, s.indexer.Refresh)
}

func (s *Server) runIndexing(w http.ResponseWriter, r *http.Request, run func(context.Context) (*index.Snapshot, index.Summary, error)) {
	jobID := uuid.NewString()
	snap, summary, err := run(r.Context())
	if err != nil {
		s.logger.Warn("indexing run failed", zap.String("job_id", jobID), zap.Error(err))
		writeIndexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"job_id":         jobID,
		"resumo":         summary,
		"processos":      len(snap.Records),
		"data_indexacao": snap.GeneratedAt,
	})
}

func (s *Server) handleProviderSearch(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": map[string]any{
			"code": "provider_disabled", "message": "consulta ao provedor não configurada", "transient": false,
		}})
		return
	}
	tribunal := strings.TrimSpace(r.URL.Query().Get("tribunal"))
	caseType := strings.TrimSpace(r.URL.Query().Get("tipo"))
	if tribunal == "" || caseType == "" {
		writeIndexError(w, newValidation("tribunal e tipo são obrigatórios"))
		return
	}
	records, cached, err := s.provider.Records(r.Context(), tribunal, caseType)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": map[string]any{
			"code": "provider_unavailable", "message": err.Error(), "transient": true,
		}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"total":     len(records),
		"processos": records,
		"cache":     cached,
	})
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": map[string]any{
			"code": "provider_disabled", "message": "cache do provedor não configurado", "transient": false,
		}})
		return
	}
	st, err := s.cache.Status()
	if err != nil {
		writeIndexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"caches":           st.Entries,
		"tamanho_total_kb": st.TotalKB,
		"ttl_horas":        st.TTL.Hours(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	snap, err := s.store.Current()
	status := map[string]any{"ok": true, "indexado": false}
	if snap != nil {
		status["indexado"] = true
		status["processos"] = len(snap.Records)
		status["data_indexacao"] = snap.GeneratedAt
	}
	if err != nil {
		status["estado_indice"] = index.CodeOf(err)
	}
	writeJSON(w, http.StatusOK, status)
}
