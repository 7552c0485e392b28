// Package relevance scores gazette publication windows with
// keyword-presence rules. All keyword sets live in one Keywords value
// so tests and operators can substitute or version them; narrowing or
// widening a list directly changes extraction yield.
package relevance

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is the ordinal relevance bucket assigned to a record.
type Tier string

const (
	TierHighest Tier = "Altíssima"
	TierHigh    Tier = "Alta"
	TierMedium  Tier = "Média"
	TierLow     Tier = "Baixa"
)

// TypeKeyword binds a lowercase trigger keyword to the case-type label
// assigned when it is the first keyword found in a window.
type TypeKeyword struct {
	Keyword string `yaml:"keyword"`
	Label   string `yaml:"label"`
}

// Keywords is the full rule configuration for extraction and scoring.
type Keywords struct {
	// Types gates extraction: a window with none of these keywords
	// yields no record. Order matters, first match assigns the label.
	Types []TypeKeyword `yaml:"types"`
	// Property marks the presence of real-estate interest.
	Property []string `yaml:"property"`
	// Closure marks terminal case states; any hit means inactive.
	Closure []string `yaml:"closure"`
	// Urgency marks enforcement activity (liens, auctions, partition).
	Urgency []string `yaml:"urgency"`
}

// Default returns the compiled-in rule set used when no configuration
// file is provided.
func Default() Keywords {
	return Keywords{
		Types: []TypeKeyword{
			{Keyword: "inventário", Label: "Inventário"},
			{Keyword: "arrolamento", Label: "Arrolamento"},
			{Keyword: "divórcio litigioso", Label: "Divórcio Litigioso"},
			{Keyword: "divórcio consensual", Label: "Divórcio Consensual"},
			{Keyword: "divórcio", Label: "Divórcio"},
			{Keyword: "partilha", Label: "Partilha"},
		},
		Property: []string{
			"matrícula", "matricula", "imóvel", "imovel", "imóveis", "imoveis",
			"fração ideal", "fracao ideal", "transcrição", "transcricao",
			"registro de imóveis", "registro de imoveis", "averbação", "averbacao",
			"matrícula imobiliária", "matricula imobiliaria",
		},
		Closure: []string{
			"sentença extintiva", "sentenca extintiva",
			"processo extinto", "extinção", "extincao",
			"arquivamento", "arquivado definitivamente",
			"homologação da partilha", "homologacao da partilha",
			"partilha homologada", "trânsito em julgado", "transito em julgado",
			"baixa definitiva",
		},
		Urgency: []string{
			"penhora", "avaliação", "avaliacao", "leilão", "leilao",
			"hasta pública", "hasta publica", "adjudicação", "adjudicacao",
			"alienação judicial", "alienacao judicial",
		},
	}
}

// Load reads a Keywords rule file in YAML form. Missing or partial
// sections fall back to the defaults so a rules file can override only
// one list.
func Load(path string) (Keywords, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read rules: %w", err)
	}
	kw := Default()
	var loaded Keywords
	if err := yaml.Unmarshal(blob, &loaded); err != nil {
		return Keywords{}, fmt.Errorf("parse rules: %w", err)
	}
	if len(loaded.Types) > 0 {
		kw.Types = loaded.Types
	}
	if len(loaded.Property) > 0 {
		kw.Property = loaded.Property
	}
	if len(loaded.Closure) > 0 {
		kw.Closure = loaded.Closure
	}
	if len(loaded.Urgency) > 0 {
		kw.Urgency = loaded.Urgency
	}
	return kw, nil
}

// Assessment is the classifier verdict for one context window.
type Assessment struct {
	HasProperty bool    `json:"tem_imovel"`
	IsActive    bool    `json:"esta_ativo"`
	Tier        Tier    `json:"relevancia"`
	Score       float64 `json:"score_relevancia"`
}

// MatchType returns the case-type label of the first type keyword found
// in the window, or "" when none is present.
func (k Keywords) MatchType(window string) string {
	lower := strings.ToLower(window)
	for _, tk := range k.Types {
		if strings.Contains(lower, strings.ToLower(tk.Keyword)) {
			return tk.Label
		}
	}
	return ""
}

// Classify scores one context window. The scoring table is monotone:
// adding a positive marker never lowers the score.
//
//	property + urgency -> Altíssima 1.0
//	property only      -> Alta      0.8
//	urgency only       -> Média     0.5
//	neither            -> Baixa     0.2
//
// A window with no lifecycle marker at all counts as active.
func (k Keywords) Classify(window string) Assessment {
	lower := strings.ToLower(window)

	a := Assessment{
		HasProperty: containsAny(lower, k.Property),
		IsActive:    !containsAny(lower, k.Closure),
	}
	urgent := containsAny(lower, k.Urgency)

	switch {
	case a.HasProperty && urgent:
		a.Tier, a.Score = TierHighest, 1.0
	case a.HasProperty:
		a.Tier, a.Score = TierHigh, 0.8
	case urgent:
		a.Tier, a.Score = TierMedium, 0.5
	default:
		a.Tier, a.Score = TierLow, 0.2
	}
	return a
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
