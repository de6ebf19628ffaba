// Package translator calls the Azure Translator text API (v3).
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harunnryd/speechlab/pkg/errorsx"
)

// DefaultEndpoint is the global Translator endpoint.
const DefaultEndpoint = "https://api.cognitive.microsofttranslator.com"

type Client struct {
	key      string
	region   string
	endpoint string
	client   *http.Client
}

// New creates a client. An empty endpoint selects DefaultEndpoint; a nil
// httpClient gets a 15s timeout.
func New(key, region, endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		key:      key,
		region:   region,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   httpClient,
	}
}

type requestItem struct {
	Text string `json:"Text"`
}

type responseItem struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate returns text in each target language keyed by the requested
// code. from may be a locale such as en-US; only its language part is sent.
func (c *Client) Translate(ctx context.Context, text, from string, targets []string) (map[string]string, error) {
	if len(targets) == 0 {
		return map[string]string{}, nil
	}
	q := url.Values{}
	q.Set("api-version", "3.0")
	if lang := baseLanguage(from); lang != "" {
		q.Set("from", lang)
	}
	for _, t := range targets {
		q.Add("to", t)
	}

	body, err := json.Marshal([]requestItem{{Text: text}})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/translate?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	if c.region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("translator request: %w", err), errorsx.ReasonProviderConnect)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("read response: %w", err), errorsx.ReasonProviderSend)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		reason := errorsx.ReasonProviderSend
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			reason = errorsx.ReasonProviderRateLimit
		case http.StatusUnauthorized, http.StatusForbidden:
			reason = errorsx.ReasonConfiguration
		}
		return nil, errorsx.Wrap(fmt.Errorf("translator API error (status %d): %s", resp.StatusCode, msg), reason)
	}

	var items []responseItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("decode response: %w", err), errorsx.ReasonProviderSend)
	}
	out := make(map[string]string, len(targets))
	if len(items) == 0 {
		return out, nil
	}
	for _, tr := range items[0].Translations {
		out[matchTarget(tr.To, targets)] = tr.Text
	}
	return out, nil
}

// The service may echo a normalized code (zh-Hans for zh-hans); key results
// by what the caller asked for.
func matchTarget(to string, targets []string) string {
	for _, t := range targets {
		if strings.EqualFold(t, to) {
			return t
		}
	}
	return to
}

func baseLanguage(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexByte(locale, '-'); i > 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}
