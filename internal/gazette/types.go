package gazette

import (
	"time"

	"github.com/mvbarbosa/judagg/internal/relevance"
)

// Document is one gazette edition as delivered by the text-extraction
// collaborator: ordered plain-text pages, no layout guarantees.
type Document struct {
	ID    string
	Date  time.Time
	Pages []string
}

// Record is one legal case carved out of a gazette publication window.
type Record struct {
	Number      string         `json:"numero"`
	CaseType    string         `json:"tipo"`
	Class       string         `json:"classe"`
	Comarca     string         `json:"comarca"`
	ComarcaCode string         `json:"codigo_comarca"`
	Value       *float64       `json:"valor_causa,omitempty"`
	HasProperty bool           `json:"tem_imovel"`
	IsActive    bool           `json:"esta_ativo"`
	Tier        relevance.Tier `json:"relevancia"`
	Score       float64        `json:"score_relevancia"`
	Parties     []string       `json:"partes,omitempty"`
	Lawyers     []string       `json:"advogados,omitempty"`
	SourceDoc   string         `json:"documento_origem,omitempty"`
	SourcePage  int            `json:"pagina,omitempty"`
	SourceDate  time.Time      `json:"data_fonte,omitzero"`
}

// Options are the optional pre-filters a caller may request for a
// one-shot extraction. They mirror the query-engine predicates so a
// caller can avoid building a full snapshot.
type Options struct {
	PropertyOnly bool
	ActiveOnly   bool
	Comarcas     []string
	MinValue     *float64
	MaxValue     *float64
}

// Rejections counts windows excluded per reason so operators can audit
// yield. Exclusions are not errors.
type Rejections struct {
	NoTypeMatch     int `json:"no_type_match"`
	Inactive        int `json:"inactive"`
	NoProperty      int `json:"no_property"`
	ComarcaMismatch int `json:"comarca_mismatch"`
	ValueOutOfRange int `json:"value_out_of_range"`
}

// Total returns the number of rejected windows across all reasons.
func (r Rejections) Total() int {
	return r.NoTypeMatch + r.Inactive + r.NoProperty + r.ComarcaMismatch + r.ValueOutOfRange
}

func (r *Rejections) add(other Rejections) {
	r.NoTypeMatch += other.NoTypeMatch
	r.Inactive += other.Inactive
	r.NoProperty += other.NoProperty
	r.ComarcaMismatch += other.ComarcaMismatch
	r.ValueOutOfRange += other.ValueOutOfRange
}
