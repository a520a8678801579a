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

// DeepL's HTTP 456 means the account quota is spent for the billing period.
const deeplStatusQuotaExceeded = 456

// DeepLProvider calls the DeepL v2 translate API. It is only constructed when
// an API key is configured.
type DeepLProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewDeepLProvider creates a DeepL adapter.
func NewDeepLProvider(apiKey, apiURL string, timeout time.Duration) *DeepLProvider {
	return &DeepLProvider{
		apiKey: apiKey,
		apiURL: apiURL,
		client: newHTTPClient(timeout),
	}
}

func (p *DeepLProvider) Name() string {
	return "DeepL"
}

// normalizeDeepLTarget maps a lowercase ISO 639-1 code to DeepL's dialect of
// target codes. DeepL refuses the bare EN and PT codes.
func normalizeDeepLTarget(lang string) string {
	code := strings.ToUpper(strings.TrimSpace(lang))
	switch code {
	case "EN":
		return "EN-US"
	case "PT":
		return "PT-PT"
	default:
		return code
	}
}

func (p *DeepLProvider) Translate(ctx context.Context, text, targetLang string) Outcome {
	body := `{"text":[],"target_lang":""}`
	body, _ = sjson.Set(body, "text.0", text)
	body, _ = sjson.Set(body, "target_lang", normalizeDeepLTarget(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(body))
	if err != nil {
		return Rejected(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)
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
		return AuthFailed(fmt.Sprintf("deepl rejected credentials (status %d)", resp.StatusCode))
	case resp.StatusCode == deeplStatusQuotaExceeded || resp.StatusCode == http.StatusTooManyRequests:
		return QuotaExceeded(fmt.Sprintf("deepl quota exhausted (status %d)", resp.StatusCode))
	case resp.StatusCode >= 500:
		return Unreachable(fmt.Errorf("deepl server error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		msg := gjson.GetBytes(respBody, "message").String()
		if msg == "" {
			msg = utils.TruncateString(string(respBody), 200)
		}
		return Rejected(fmt.Sprintf("deepl status %d: %s", resp.StatusCode, msg))
	}

	translated := gjson.GetBytes(respBody, "translations.0.text").String()
	if translated == "" {
		return Rejected("deepl returned no translations")
	}
	return Translated(translated)
}
