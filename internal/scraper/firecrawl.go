package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultFirecrawlURL is the hosted Firecrawl scrape endpoint
const DefaultFirecrawlURL = "https://api.firecrawl.dev/v0/scrape"

// maxResponseBytes caps how much of an extraction response is read
const maxResponseBytes = 1 << 20

// Firecrawl extracts item metadata with Firecrawl's LLM extraction mode
type Firecrawl struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *logrus.Logger
}

// NewFirecrawl creates a Firecrawl client. An empty endpoint selects
// DefaultFirecrawlURL; a nil client selects http.DefaultClient.
func NewFirecrawl(apiKey, endpoint string, client *http.Client, logger *logrus.Logger) *Firecrawl {
	if endpoint == "" {
		endpoint = DefaultFirecrawlURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Firecrawl{apiKey: apiKey, endpoint: endpoint, client: client, logger: logger}
}

type scrapeRequest struct {
	URL       string          `json:"url"`
	Extractor scrapeExtractor `json:"extractor"`
}

type scrapeExtractor struct {
	Mode       string         `json:"mode"`
	JSONSchema map[string]any `json:"json_schema"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		LLMExtraction *extraction `json:"llm_extraction"`
	} `json:"data"`
}

type extraction struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       json.RawMessage `json:"price"`
}

var itemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"price":       map[string]any{"type": []string{"number", "string"}},
		"description": map[string]any{"type": "string"},
		"image_url":   map[string]any{"type": "string", "format": "uri"},
	},
	"required": []string{"title"},
}

// Extract posts url to Firecrawl and maps the LLM extraction onto a Result
func (f *Firecrawl) Extract(ctx context.Context, url string) (*Result, error) {
	if f.apiKey == "" {
		return nil, errors.New("firecrawl API key is not configured")
	}

	body, err := json.Marshal(scrapeRequest{
		URL:       url,
		Extractor: scrapeExtractor{Mode: "llm-extraction", JSONSchema: itemSchema},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call firecrawl: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read firecrawl response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("firecrawl returned status %d", resp.StatusCode)
	}

	var decoded scrapeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode firecrawl response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("firecrawl error: %s", decoded.Error)
	}
	if decoded.Data.LLMExtraction == nil {
		return nil, errors.New("firecrawl response has no extraction")
	}

	result, err := decoded.Data.LLMExtraction.toResult()
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"url":   url,
		"title": result.Title,
	}).Debug("Extracted item metadata")

	return result, nil
}

func (e *extraction) toResult() (*Result, error) {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return nil, ErrNoTitle
	}

	result := &Result{Title: title}
	if d := strings.TrimSpace(e.Description); d != "" {
		result.Description = &d
	}
	if u := strings.TrimSpace(e.ImageURL); u != "" {
		result.ImageURL = &u
	}

	price, err := ParsePrice(e.Price)
	if err != nil {
		return nil, err
	}
	result.Price = price
	return result, nil
}

// ParsePrice accepts a JSON number or a string such as "1 299,50 ₽" or
// "$12.99". Absent, null or empty values give a nil price.
func ParsePrice(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		if number < 0 {
			return nil, fmt.Errorf("negative price %v", number)
		}
		return &number, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("unsupported price value %s", string(raw))
	}
	return parsePriceString(text)
}

func parsePriceString(text string) (*float64, error) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ',':
			b.WriteRune('.')
		}
	}
	digits := strings.Trim(b.String(), ".")
	if digits == "" {
		return nil, nil
	}

	// Only the last separator can be a decimal point; earlier ones group
	// thousands.
	if last := strings.LastIndex(digits, "."); last >= 0 {
		whole := strings.ReplaceAll(digits[:last], ".", "")
		frac := digits[last+1:]
		if len(frac) == 3 && whole != "" {
			digits = whole + frac
		} else {
			digits = whole + "." + frac
		}
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", text, err)
	}
	return &value, nil
}
