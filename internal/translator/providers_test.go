package translator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalizeDeepLTarget(t *testing.T) {
	assert.Equal(t, "EN-US", normalizeDeepLTarget("en"))
	assert.Equal(t, "PT-PT", normalizeDeepLTarget("pt"))
	assert.Equal(t, "DE", normalizeDeepLTarget("de"))
	assert.Equal(t, "FR", normalizeDeepLTarget(" fr "))
}

func TestDeepLProviderSuccess(t *testing.T) {
	var gotAuth, gotTarget string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		gotTarget = gjson.GetBytes(body, "target_lang").String()
		w.Write([]byte(`{"translations":[{"text":"Hallo Welt"}]}`))
	}))
	defer server.Close()

	p := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello world", "de")

	require.Equal(t, OutcomeTranslated, out.Kind)
	assert.Equal(t, "Hallo Welt", out.Text)
	assert.Equal(t, "DeepL-Auth-Key test-key", gotAuth)
	assert.Equal(t, "DE", gotTarget)
}

func TestDeepLProviderQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(456)
	}))
	defer server.Close()

	p := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "es")
	assert.Equal(t, OutcomeQuotaExceeded, out.Kind)
}

func TestDeepLProviderAuthFailed(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		p := NewDeepLProvider("bad-key", server.URL, 5*time.Second)
		out := p.Translate(context.Background(), "Hello", "es")
		assert.Equal(t, OutcomeAuthFailed, out.Kind, "status %d", status)
		server.Close()
	}
}

func TestDeepLProviderUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	p := NewDeepLProvider("test-key", server.URL, 2*time.Second)
	out := p.Translate(context.Background(), "Hello", "es")
	assert.Equal(t, OutcomeUnreachable, out.Kind)
}

func TestDeepLProviderEmptyTranslations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[]}`))
	}))
	defer server.Close()

	p := NewDeepLProvider("test-key", server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "es")
	assert.Equal(t, OutcomeRejected, out.Kind)
}

func TestLibreTranslateProviderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		assert.Equal(t, "auto", gjson.GetBytes(body, "source").String())
		assert.Equal(t, "fr", gjson.GetBytes(body, "target").String())
		assert.Equal(t, "text", gjson.GetBytes(body, "format").String())
		w.Write([]byte(`{"translatedText":"Bonjour"}`))
	}))
	defer server.Close()

	p := NewLibreTranslateProvider(server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "FR")

	require.Equal(t, OutcomeTranslated, out.Kind)
	assert.Equal(t, "Bonjour", out.Text)
}

func TestLibreTranslateProviderRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewLibreTranslateProvider(server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "fr")
	assert.Equal(t, OutcomeQuotaExceeded, out.Kind)
}

func TestLibreTranslateProviderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewLibreTranslateProvider(server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "fr")
	assert.Equal(t, OutcomeUnreachable, out.Kind)
}

func TestMyMemoryProviderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Hello", r.URL.Query().Get("q"))
		assert.Equal(t, "auto|it", r.URL.Query().Get("langpair"))
		w.Write([]byte(`{"responseStatus":200,"responseData":{"translatedText":"Ciao"}}`))
	}))
	defer server.Close()

	p := NewMyMemoryProvider(server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "it")

	require.Equal(t, OutcomeTranslated, out.Kind)
	assert.Equal(t, "Ciao", out.Text)
}

func TestMyMemoryProviderInnerQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseStatus":403,"responseDetails":"YOU USED ALL AVAILABLE FREE TRANSLATIONS FOR TODAY"}`))
	}))
	defer server.Close()

	p := NewMyMemoryProvider(server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "it")
	assert.Equal(t, OutcomeQuotaExceeded, out.Kind)
}

func TestMyMemoryProviderInnerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseStatus":403,"responseDetails":"INVALID LANGUAGE PAIR"}`))
	}))
	defer server.Close()

	p := NewMyMemoryProvider(server.URL, 5*time.Second)
	out := p.Translate(context.Background(), "Hello", "zz")
	assert.Equal(t, OutcomeRejected, out.Kind)
	assert.Contains(t, out.Reason, "INVALID LANGUAGE PAIR")
}

func TestProviderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewMyMemoryProvider(server.URL, 5*time.Second)
	out := p.Translate(ctx, "Hello", "it")
	assert.Equal(t, OutcomeUnreachable, out.Kind)
}
