// Package translate forwards text to an external machine-translation API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"blogapi/internal/config"
)

// Translator turns text into targetLang.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("translation api key is not configured")

// DeepLClient calls the DeepL v2 translate endpoint.
type DeepLClient struct {
	url    string
	key    string
	client *http.Client
}

var _ Translator = (*DeepLClient)(nil)

// NewDeepL returns a client whose requests are traced through otelhttp.
func NewDeepL(cfg config.TranslationConfig) *DeepLClient {
	return &DeepLClient{
		url:    cfg.APIURL,
		key:    cfg.APIKey,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

type deeplRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (d *DeepLClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if d.key == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(deeplRequest{Text: []string{text}, TargetLang: targetLang})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("deepl returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode deepl response: %w", err)
	}
	if len(out.Translations) == 0 {
		return "", errors.New("deepl returned no translations")
	}
	return out.Translations[0].Text, nil
}
