// Package datajud talks to the upstream DataJud case-search API and
// caches its answers per (tribunal, case type) key so repeated queries
// do not hit the provider inside the freshness window.
package datajud

import (
	"time"

	"github.com/mvbarbosa/judagg/internal/relevance"
)

// ProviderRecord is one case as returned by the upstream search
// provider. These are provider records, not gazette extractions; the
// two sets live in separate caches.
type ProviderRecord struct {
	Number     string         `json:"numero"`
	Tribunal   string         `json:"tribunal"`
	CaseType   string         `json:"tipo_processo"`
	Class      string         `json:"classe"`
	Comarca    string         `json:"comarca"`
	Value      *float64       `json:"valor_causa,omitempty"`
	FilingDate time.Time      `json:"data_ajuizamento,omitzero"`
	Movements  int            `json:"movimentacoes"`
	Tier       relevance.Tier `json:"relevancia"`
	Score      float64        `json:"score_relevancia"`
}

// Entry is one cached provider answer, independently TTL-stamped.
type Entry struct {
	Tribunal  string           `json:"tribunal"`
	CaseType  string           `json:"tipo_processo"`
	Total     int              `json:"total_processos"`
	UpdatedAt time.Time        `json:"data_atualizacao"`
	Records   []ProviderRecord `json:"processos"`
}

// KeyStatus describes one cache entry for the status report.
type KeyStatus struct {
	File      string    `json:"arquivo"`
	Tribunal  string    `json:"tribunal"`
	CaseType  string    `json:"tipo_processo"`
	Total     int       `json:"total_processos"`
	UpdatedAt time.Time `json:"data_atualizacao"`
	SizeKB    float64   `json:"tamanho_kb"`
	Fresh     bool      `json:"valido"`
}

// Status summarizes the whole per-key cache.
type Status struct {
	Entries []KeyStatus   `json:"caches"`
	TotalKB float64       `json:"tamanho_total_kb"`
	TTL     time.Duration `json:"-"`
}
