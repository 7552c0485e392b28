// Package gazette extracts legal-case records from the free-form page
// text of court publication bulletins (DJE). Extraction is pure text
// work: locate case numbers, carve a context window, gate on case-type
// keywords, then pull secondary fields with targeted sub-patterns.
package gazette

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mvbarbosa/judagg/internal/cnj"
	"github.com/mvbarbosa/judagg/internal/comarca"
	"github.com/mvbarbosa/judagg/internal/relevance"
)

// DefaultWindow is how many runes of context are carved on each side of
// a case-number match. Publication entries can place the type keyword
// well before or after the number.
const DefaultWindow = 2000

// ErrNoText is returned for documents whose pages carry no usable text.
var ErrNoText = errors.New("document has no extractable text")

var (
	// TJSP CNJ case numbers as they appear in the gazette.
	numberPattern = regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.8\.26\.\d{4}`)

	classPattern   = regexp.MustCompile(`(?i)(Apelação[^\n-]*|Inventário|Divórcio[^\n-]*|Arrolamento|Partilha)`)
	comarcaPattern = regexp.MustCompile(`(?i)Comarca de\s+([\p{Lu}][\p{L}\s]+?)\s*(?:-|,|\n)`)
	valuePattern   = regexp.MustCompile(`R\$\s*([\d.,]+)`)
	oabPattern     = regexp.MustCompile(`OAB:?\s*\d+/[A-Z]{2}`)
	lawyerPattern  = regexp.MustCompile(`([\p{Lu}][\p{L}\s.]+?)\s*\($`)
)

// partyRoles are the labeled roles scanned for party mentions, in the
// order they are reported.
var partyRoles = []string{"Apelante", "Apelado", "Requerente", "Requerido", "Autor", "Réu"}

var partyPatterns = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(partyRoles))
	for _, role := range partyRoles {
		out[role] = regexp.MustCompile(role + `:\s*([^\n-]+?)\s*(?:-|\n)`)
	}
	return out
}()

const (
	maxPartyNameLen = 100
	maxParties      = 4
	maxLawyers      = 4
)

// Extractor turns page text into candidate records. It is a pure
// function of the text plus its keyword configuration; one instance may
// be shared by any number of goroutines.
type Extractor struct {
	keywords relevance.Keywords
	window   int
}

// NewExtractor builds an Extractor. A non-positive window falls back to
// DefaultWindow.
func NewExtractor(kw relevance.Keywords, window int) *Extractor {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Extractor{keywords: kw, window: window}
}

// ExtractDocument scans every page of one document and returns the
// candidate records that pass the requested filters, along with the
// per-reason rejection counts. Within a document the first page
// mentioning a number wins; later mentions are skipped. ErrNoText is
// returned when no page has any text at all.
func (e *Extractor) ExtractDocument(doc Document, opts Options) ([]Record, Rejections, error) {
	var (
		records []Record
		rej     Rejections
		seen    = map[string]struct{}{}
		hasText bool
	)
	filter := comarca.NewFilter(opts.Comarcas)

	for i, page := range doc.Pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		hasText = true
		pageRecords, pageRej := e.extractPage(doc, i+1, page, seen, opts, filter)
		records = append(records, pageRecords...)
		rej.add(pageRej)
	}
	if !hasText {
		return nil, rej, ErrNoText
	}
	return records, rej, nil
}

func (e *Extractor) extractPage(doc Document, pageNum int, text string, seen map[string]struct{}, opts Options, filter comarca.Filter) ([]Record, Rejections) {
	var (
		records []Record
		rej     Rejections
	)
	for _, loc := range numberPattern.FindAllStringIndex(text, -1) {
		number := cnj.Normalize(text[loc[0]:loc[1]])
		if _, dup := seen[number]; dup {
			continue
		}

		window := carveWindow(text, loc[0], loc[1], e.window)

		caseType := e.keywords.MatchType(window)
		if caseType == "" {
			rej.NoTypeMatch++
			continue
		}

		// Duplicate numbers inside one window resolve here: the
		// number is marked seen before any filter can reject it
		// a second time.
		seen[number] = struct{}{}

		code := cnj.ForumCode(number)
		rec := Record{
			Number:      number,
			CaseType:    caseType,
			Class:       extractClass(window, caseType),
			ComarcaCode: code,
			Comarca:     extractComarca(window, code),
			Value:       ParseCurrency(firstValue(window)),
			Parties:     extractParties(window),
			Lawyers:     extractLawyers(window),
			SourceDoc:   doc.ID,
			SourcePage:  pageNum,
			SourceDate:  doc.Date,
		}

		a := e.keywords.Classify(window)
		rec.HasProperty = a.HasProperty
		rec.IsActive = a.IsActive
		rec.Tier = a.Tier
		rec.Score = a.Score

		switch {
		case opts.ActiveOnly && !rec.IsActive:
			rej.Inactive++
		case opts.PropertyOnly && !rec.HasProperty:
			rej.NoProperty++
		case !filter.Matches(rec.ComarcaCode, rec.Comarca):
			rej.ComarcaMismatch++
		case !inValueRange(rec.Value, opts.MinValue, opts.MaxValue):
			rej.ValueOutOfRange++
		default:
			records = append(records, rec)
		}
	}
	return records, rej
}

// carveWindow slices a context of up to window runes on each side of a
// match. Counting runes keeps the window width independent of how many
// accented characters the text happens to carry.
func carveWindow(text string, start, end, window int) string {
	lo := start
	for n := 0; n < window && lo > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for n := 0; n < window && hi < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}

func extractClass(window, fallback string) string {
	if m := classPattern.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}
	return fallback
}

func extractComarca(window, code string) string {
	if m := comarcaPattern.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}
	return comarca.Resolve(code)
}

func extractParties(window string) []string {
	var parties []string
	for _, role := range partyRoles {
		m := partyPatterns[role].FindStringSubmatch(window)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" || len(name) > maxPartyNameLen {
			continue
		}
		parties = append(parties, role+": "+name)
		if len(parties) == maxParties {
			break
		}
	}
	return parties
}

func extractLawyers(window string) []string {
	var lawyers []string
	for _, loc := range oabPattern.FindAllStringIndex(window, -1) {
		lookback := window[max(0, loc[0]-100):loc[0]]
		if m := lawyerPattern.FindStringSubmatch(strings.TrimRight(lookback, " ")); m != nil {
			lawyers = append(lawyers, strings.TrimSpace(m[1])+" ("+window[loc[0]:loc[1]]+")")
		}
		if len(lawyers) == maxLawyers {
			break
		}
	}
	return lawyers
}

func firstValue(window string) string {
	if m := valuePattern.FindStringSubmatch(window); m != nil {
		return m[1]
	}
	return ""
}

// ParseCurrency parses a pt-BR formatted amount ("1.234.567,89") into a
// float. Unparsable or empty input yields nil, never an error: a
// monetary value the parser cannot read is simply absent.
func ParseCurrency(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

func inValueRange(v, min, max *float64) bool {
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
