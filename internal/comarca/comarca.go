// Package comarca resolves CNJ forum codes to comarca names and
// expands aggregate region names (the São Paulo capital spans dozens
// of constituent forum codes) into code sets for filtering.
package comarca

import "strings"

// namesTJSP maps TJSP forum codes to comarca display names. Codes come
// from the CNJ numbering tables; unknown codes degrade to a synthesized
// placeholder via Resolve, never an error.
var namesTJSP = map[string]string{
	"0019": "Americana",
	"0020": "Araçatuba",
	"0021": "Araraquara",
	"0023": "Assis",
	"0024": "Avaré",
	"0027": "Barretos",
	"0030": "Birigui",
	"0032": "Botucatu",
	"0033": "Bragança Paulista",
	"0037": "Catanduva",
	"0040": "Cruzeiro",
	"0046": "Fernandópolis",
	"0049": "Guaratinguetá",
	"0055": "Indaiatuba",
	"0056": "Itapetininga",
	"0057": "Itapeva",
	"0058": "Itu",
	"0059": "Jaboticabal",
	"0060": "Jacareí",
	"0061": "Jales",
	"0062": "Jaú",
	"0067": "Leme",
	"0068": "Lins",
	"0070": "Marília",
	"0071": "Matão",
	"0073": "Mococa",
	"0074": "Mogi das Cruzes",
	"0075": "Mogi Guaçu",
	"0078": "Olímpia",
	"0079": "Ourinhos",
	"0081": "Penápolis",
	"0083": "Pindamonhangaba",
	"0085": "Presidente Prudente",
	"0088": "Rio Claro",
	"0090": "São Paulo",
	"0095": "Santa Bárbara d'Oeste",
	"0096": "São Carlos",
	"0097": "São João da Boa Vista",
	"0098": "São José do Rio Preto",
	"0100": "São Paulo - Foro Central Cível",
	"0103": "Taquaritinga",
	"0104": "Tatuí",
	"0105": "Taubaté",
	"0107": "Tupã",
	"0110": "Votuporanga",
	"0114": "Campinas",
	"0127": "Santos",
	"0129": "São Bernardo do Campo",
	"0130": "Santo André",
	"0131": "Ribeirão Preto",
	"0132": "Sorocaba",
	"0133": "Guarulhos",
	"0134": "Osasco",
	"0135": "Mauá",
	"0136": "Diadema",
	"0137": "Piracicaba",
	"0138": "Carapicuíba",
	"0139": "Bauru",
	"0140": "São José dos Campos",
	"0141": "Franca",
	"0142": "Jundiaí",
	"0143": "Limeira",
	"0144": "Suzano",
	"0145": "Taboão da Serra",
	"0146": "Sumaré",

	// Capital regional forums. Display names differ from the aggregate
	// label "São Paulo", which is why filtering must expand the
	// aggregate to codes instead of comparing names.
	"0001": "Foro Regional I - Santana",
	"0002": "Foro Regional II - Santo Amaro",
	"0003": "Foro Regional III - Jabaquara",
	"0004": "Foro Regional IV - Lapa",
	"0005": "Foro Regional V - São Miguel Paulista",
	"0006": "Foro Regional VI - Penha de França",
	"0007": "Foro Regional VII - Itaquera",
	"0008": "Foro Regional VIII - Tatuapé",
	"0009": "Foro Regional IX - Vila Prudente",
	"0010": "Foro Regional X - Ipiranga",
	"0011": "Foro Regional XI - Pinheiros",
	"0012": "Foro Regional XII - Nossa Senhora do Ó",
	"0016": "Foro Regional de Itaquera - Anexo",
	"0050": "Foro Central Criminal - Barra Funda",
}

// namesTJBA maps TJBA forum codes (segment 8.05) to comarca names.
// TJBA codes overlap TJSP's numerically, so resolution is always
// tribunal-keyed; "0001" is Salvador in one table and a capital
// regional forum in the other.
var namesTJBA = map[string]string{
	"0001": "Salvador",
	"0002": "Feira de Santana",
	"0003": "Vitória da Conquista",
	"0004": "Camaçari",
	"0005": "Itabuna",
	"0006": "Juazeiro",
	"0007": "Lauro de Freitas",
	"0008": "Ilhéus",
	"0009": "Jequié",
	"0010": "Alagoinhas",
	"0011": "Barreiras",
	"0012": "Paulo Afonso",
	"0013": "Santo Antônio de Jesus",
	"0014": "Valença",
	"0015": "Simões Filho",
	"0016": "Teixeira de Freitas",
	"0017": "Candeias",
	"0018": "Jacobina",
	"0019": "Eunápolis",
	"0020": "Senhor do Bonfim",
	"0021": "Porto Seguro",
	"0022": "Brumado",
	"0023": "Guanambi",
	"0024": "Santo Amaro",
	"0025": "Serrinha",
	"0026": "Irecê",
	"0027": "Cruz das Almas",
	"0028": "Conceição do Coité",
	"0029": "Bom Jesus da Lapa",
	"0030": "Dias d'Ávila",
}

// tribunalNames selects the per-tribunal code table.
var tribunalNames = map[string]map[string]string{
	"TJSP": namesTJSP,
	"TJBA": namesTJBA,
}

// capitalForums is the São Paulo capital aggregate: every constituent
// forum code that a request for "São Paulo" must match.
var capitalForums = map[string]struct{}{
	"0001": {}, "0002": {}, "0003": {}, "0004": {}, "0005": {},
	"0006": {}, "0007": {}, "0008": {}, "0009": {}, "0010": {},
	"0011": {}, "0012": {}, "0016": {}, "0050": {}, "0090": {},
	"0100": {},
}

// capitalLabels are the request spellings recognized as the capital
// aggregate.
var capitalLabels = map[string]struct{}{
	"são paulo":           {},
	"sao paulo":           {},
	"sp capital":          {},
	"são paulo (capital)": {},
	"sao paulo (capital)": {},
}

// Resolve maps a TJSP forum code to its comarca display name. Unknown
// codes produce a placeholder built from the raw code so resolution is
// total.
func Resolve(code string) string {
	return ResolveTribunal("TJSP", code)
}

// ResolveTribunal resolves a forum code within one tribunal's
// numbering. Codes of tribunals without a table never borrow another
// tribunal's names; they degrade to the same placeholder as unknown
// codes.
func ResolveTribunal(tribunal, code string) string {
	names := tribunalNames[strings.ToUpper(strings.TrimSpace(tribunal))]
	if name, ok := names[code]; ok {
		return name
	}
	return "Código " + code
}

// CapitalForumCodes returns the constituent codes of the São Paulo
// capital aggregate.
func CapitalForumCodes() map[string]struct{} {
	out := make(map[string]struct{}, len(capitalForums))
	for c := range capitalForums {
		out[c] = struct{}{}
	}
	return out
}

// Filter matches records against a set of requested comarca names.
// Aggregate labels are expanded to constituent forum codes at
// construction; remaining names fall back to case-insensitive substring
// matching against resolved display names. Expansion always runs before
// the substring fallback.
type Filter struct {
	codes map[string]struct{}
	names []string
}

// NewFilter builds a Filter from requested comarca names. An empty or
// nil request yields a filter that matches everything.
func NewFilter(requested []string) Filter {
	f := Filter{codes: map[string]struct{}{}}
	for _, raw := range requested {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, ok := capitalLabels[name]; ok {
			for c := range capitalForums {
				f.codes[c] = struct{}{}
			}
			continue
		}
		f.names = append(f.names, name)
	}
	return f
}

// Empty reports whether the filter matches all records.
func (f Filter) Empty() bool {
	return len(f.codes) == 0 && len(f.names) == 0
}

// Matches reports whether a record with the given forum code and
// resolved comarca name satisfies the filter. Code membership (from
// aggregate expansion) is checked first; the substring comparison is
// only a fallback for plain comarca names.
func (f Filter) Matches(code, name string) bool {
	if f.Empty() {
		return true
	}
	if _, ok := f.codes[code]; ok {
		return true
	}
	lower := strings.ToLower(name)
	for _, want := range f.names {
		if strings.Contains(lower, want) || strings.Contains(want, lower) {
			return true
		}
	}
	return false
}
