package datajud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/mvbarbosa/judagg/internal/cnj"
	"github.com/mvbarbosa/judagg/internal/comarca"
	"github.com/mvbarbosa/judagg/internal/relevance"
)

// DefaultBaseURL is the public DataJud search endpoint root; the
// tribunal alias is appended per request.
const DefaultBaseURL = "https://api-publica.datajud.cnj.jus.br"

const defaultPageSize = 100

// Client queries the DataJud public search API. Responses arrive in
// Elasticsearch hit envelopes; fields are plucked with gjson instead of
// mirroring the whole upstream schema.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	clock      func() time.Time
}

// NewClient builds a Client. An empty baseURL falls back to the public
// endpoint and a nil httpClient gets a 30s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient, logger: logger, clock: time.Now}
}

type searchRequest struct {
	Query struct {
		Match map[string]string `json:"match"`
	} `json:"query"`
	Size int              `json:"size"`
	From int              `json:"from"`
	Sort []map[string]any `json:"sort,omitempty"`
}

// Search fetches up to limit cases of one class from one tribunal,
// newest filings first.
func (c *Client) Search(ctx context.Context, tribunal, caseType string, limit int) ([]ProviderRecord, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var records []ProviderRecord
	for from := 0; from < limit; from += defaultPageSize {
		size := min(defaultPageSize, limit-from)
		page, err := c.searchPage(ctx, tribunal, caseType, from, size)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		if len(page) < size {
			break
		}
	}
	return records, nil
}

func (c *Client) searchPage(ctx context.Context, tribunal, caseType string, from, size int) ([]ProviderRecord, error) {
	var req searchRequest
	req.Query.Match = map[string]string{"classe.nome": caseType}
	req.Size = size
	req.From = from
	req.Sort = []map[string]any{{"dataAjuizamento": map[string]string{"order": "desc"}}}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	url := fmt.Sprintf("%s/api_publica_%s/_search", c.baseURL, strings.ToLower(tribunal))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "APIKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("datajud search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("datajud search: unexpected status %d", resp.StatusCode)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("datajud search: read body: %w", err)
	}
	return c.parseHits(blob, tribunal, caseType), nil
}

// parseHits converts the Elasticsearch hit array into provider records.
// Hits without a case number are dropped; everything else degrades
// field by field.
func (c *Client) parseHits(blob []byte, tribunal, caseType string) []ProviderRecord {
	hits := gjson.GetBytes(blob, "hits.hits")
	var records []ProviderRecord
	hits.ForEach(func(_, hit gjson.Result) bool {
		source := hit.Get("_source")
		number := cnj.Normalize(source.Get("numeroProcesso").String())
		if number == "" {
			return true
		}

		rec := ProviderRecord{
			Number:    number,
			Tribunal:  tribunal,
			CaseType:  caseType,
			Class:     source.Get("classe.nome").String(),
			Comarca:   source.Get("orgaoJulgador.nomeOrgao").String(),
			Movements: int(source.Get("movimentos.#").Int()),
		}
		if rec.Class == "" {
			rec.Class = caseType
		}
		if rec.Comarca == "" {
			rec.Comarca = comarca.ResolveTribunal(tribunal, cnj.ForumCode(number))
		}
		if v := source.Get("valorCausa"); v.Exists() && v.Type == gjson.Number {
			val := v.Float()
			rec.Value = &val
		}
		if raw := source.Get("dataAjuizamento").String(); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				rec.FilingDate = t
			}
		}
		rec.Tier, rec.Score = c.scoreHit(rec)
		records = append(records, rec)
		return true
	})
	return records
}

// scoreHit ranks a provider record by filing recency and movement
// activity. Unlike the gazette classifier this has no text window to
// inspect, so the signal is purely structural.
func (c *Client) scoreHit(rec ProviderRecord) (relevance.Tier, float64) {
	score := 0.5
	if !rec.FilingDate.IsZero() {
		switch age := c.clock().Sub(rec.FilingDate); {
		case age < 180*24*time.Hour:
			score += 0.3
		case age < 365*24*time.Hour:
			score += 0.2
		}
	}
	if rec.Movements > 0 {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	switch {
	case score >= 0.7:
		return relevance.TierHigh, score
	case score >= 0.5:
		return relevance.TierMedium, score
	default:
		return relevance.TierLow, score
	}
}
