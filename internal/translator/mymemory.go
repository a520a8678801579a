package translator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"babelflag/internal/utils"

	"github.com/tidwall/gjson"
)

// MyMemoryProvider calls the MyMemory public GET endpoint. It is the last
// resort of the cascade and needs no credentials.
type MyMemoryProvider struct {
	apiURL string
	client *http.Client
}

// NewMyMemoryProvider creates a MyMemory adapter.
func NewMyMemoryProvider(apiURL string, timeout time.Duration) *MyMemoryProvider {
	return &MyMemoryProvider{
		apiURL: apiURL,
		client: newHTTPClient(timeout),
	}
}

func (p *MyMemoryProvider) Name() string {
	return "MyMemory"
}

func (p *MyMemoryProvider) Translate(ctx context.Context, text, targetLang string) Outcome {
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", "auto|"+strings.ToLower(strings.TrimSpace(targetLang)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return Rejected(fmt.Sprintf("build request: %v", err))
	}

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
	case resp.StatusCode == http.StatusTooManyRequests:
		return QuotaExceeded("mymemory rate limit reached")
	case resp.StatusCode >= 500:
		return Unreachable(fmt.Errorf("mymemory server error (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return Rejected(fmt.Sprintf("mymemory status %d", resp.StatusCode))
	}

	// MyMemory reports errors through an inner responseStatus while the HTTP
	// layer stays 200.
	inner := gjson.GetBytes(respBody, "responseStatus").Int()
	if inner != 0 && inner != http.StatusOK {
		details := gjson.GetBytes(respBody, "responseDetails").String()
		if strings.Contains(strings.ToUpper(details), "FREE TRANSLATIONS") {
			return QuotaExceeded("mymemory daily quota exhausted")
		}
		return Rejected(fmt.Sprintf("mymemory responseStatus %d: %s", inner, utils.TruncateString(details, 200)))
	}

	translated := gjson.GetBytes(respBody, "responseData.translatedText").String()
	if translated == "" {
		return Rejected("mymemory returned no translatedText")
	}
	return Translated(translated)
}
