package translator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"babelflag/internal/utils"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// LibreTranslateProvider calls a LibreTranslate instance. Source language is
// always auto-detected.
type LibreTranslateProvider struct {
	apiURL string
	client *http.Client
}

// NewLibreTranslateProvider creates a LibreTranslate adapter.
func NewLibreTranslateProvider(apiURL string, timeout time.Duration) *LibreTranslateProvider {
	return &LibreTranslateProvider{
		apiURL: apiURL,
		client: newHTTPClient(timeout),
	}
}

func (p *LibreTranslateProvider) Name() string {
	return "LibreTranslate"
}

func (p *LibreTranslateProvider) Translate(ctx context.Context, text, targetLang string) Outcome {
	body := `{"source":"auto","format":"text"}`
	body, _ = sjson.Set(body, "q", text)
	body, _ = sjson.Set(body, "target", strings.ToLower(strings.TrimSpace(targetLang)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(body))
	if err != nil {
		return Rejected(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Unreachable(utils.CategorizeError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Unreachable(utils.CategorizeError(err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return AuthFailed(fmt.Sprintf("libretranslate rejected request (status %d)", resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return QuotaExceeded("libretranslate rate limit reached")
	case resp.StatusCode >= 500:
		return Unreachable(fmt.Errorf("libretranslate server error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		msg := gjson.GetBytes(respBody, "error").String()
		if msg == "" {
			msg = utils.TruncateString(string(respBody), 200)
		}
		return Rejected(fmt.Sprintf("libretranslate status %d: %s", resp.StatusCode, msg))
	}

	translated := gjson.GetBytes(respBody, "translatedText").String()
	if translated == "" {
		return Rejected("libretranslate returned no translatedText")
	}
	return Translated(translated)
}
