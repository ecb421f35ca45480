package translation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// GoogleTranslator implements Translator against the public Google Translate
// web endpoint (client=gtx), which needs no credentials.
type GoogleTranslator struct {
	baseURL    string
	httpClient *http.Client
}

// NewGoogleTranslator creates a translator for the given endpoint URL
func NewGoogleTranslator(baseURL string) *GoogleTranslator {
	return &GoogleTranslator{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Translate calls the endpoint and joins the translated sentence segments
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call translation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translation service error: status %d: %s", resp.StatusCode, string(body))
	}

	// [[["translated","original",null,null,10], ...], null, "id", ...]
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("unexpected response shape: %w", ErrEmptyTranslation)
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
