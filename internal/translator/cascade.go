package translator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FailureMessage is posted when every provider in the cascade failed. The
// dedup gate treats a thread entry carrying this text as retryable, so the
// wording must stay stable.
const FailureMessage = "Translation failed, all services exhausted."

// Request carries one translation job through the cascade.
type Request struct {
	Text       string
	TargetLang string
	GuildID    string
	// Dictionary holds per-guild term overrides applied to the source text
	// exactly once, before any provider sees it.
	Dictionary map[string]string
	// TraceID correlates the cascade's log lines with the reaction event
	// that triggered it.
	TraceID string
}

// Result is the final outcome of a cascade run.
type Result struct {
	Success   bool
	Text      string
	Provider  string   // provider that produced the text, when Success
	Reason    string   // failure summary, when !Success
	Attempted []string // providers tried, in order
}

// UsageRecorder receives character counts for successful translations.
type UsageRecorder interface {
	RecordUsage(provider string, chars int)
}

// Cascade tries providers in a fixed order until one succeeds. A provider
// that fails authentication is disabled for the rest of the process lifetime;
// quota and transport failures only skip to the next provider.
type Cascade struct {
	providers   []Provider
	usage       UsageRecorder
	callTimeout time.Duration

	mu       sync.Mutex
	disabled map[string]bool
}

// NewCascade creates a cascade over the given providers. Order is
// significant: the first provider is the most preferred.
func NewCascade(providers []Provider, usage UsageRecorder, callTimeout time.Duration) *Cascade {
	return &Cascade{
		providers:   providers,
		usage:       usage,
		callTimeout: callTimeout,
		disabled:    make(map[string]bool),
	}
}

// ProviderNames returns the configured provider order for diagnostics.
func (c *Cascade) ProviderNames() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// isDisabled reports whether a provider was disabled after an auth failure.
func (c *Cascade) isDisabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[name]
}

func (c *Cascade) disable(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled[name] = true
}

// Translate runs the cascade for one request and returns the first success,
// or a failure result once every provider has been exhausted.
func (c *Cascade) Translate(ctx context.Context, req Request) Result {
	text := applyDictionary(req.Text, req.Dictionary)

	log := logrus.WithFields(logrus.Fields{
		"guild_id":    req.GuildID,
		"target_lang": req.TargetLang,
		"trace_id":    req.TraceID,
	})

	result := Result{}
	for _, p := range c.providers {
		if c.isDisabled(p.Name()) {
			log.WithField("provider", p.Name()).Debug("Skipping provider disabled after auth failure")
			continue
		}
		result.Attempted = append(result.Attempted, p.Name())

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		outcome := p.Translate(callCtx, text, req.TargetLang)
		cancel()

		switch outcome.Kind {
		case OutcomeTranslated:
			if c.usage != nil {
				c.usage.RecordUsage(p.Name(), len([]rune(text)))
			}
			log.WithField("provider", p.Name()).Debug("Translation succeeded")
			result.Success = true
			result.Text = outcome.Text
			result.Provider = p.Name()
			return result
		case OutcomeAuthFailed:
			c.disable(p.Name())
			log.WithFields(logrus.Fields{
				"provider": p.Name(),
				"reason":   outcome.Reason,
			}).Error("Provider authentication failed, disabling for this session")
		case OutcomeQuotaExceeded:
			log.WithFields(logrus.Fields{
				"provider": p.Name(),
				"reason":   outcome.Reason,
			}).Warn("Provider quota exhausted, falling through")
		case OutcomeUnreachable:
			log.WithFields(logrus.Fields{
				"provider": p.Name(),
				"reason":   outcome.Reason,
			}).Warn("Provider unreachable, falling through")
		default:
			log.WithFields(logrus.Fields{
				"provider": p.Name(),
				"reason":   outcome.Reason,
			}).Warn("Provider returned an unusable response, falling through")
		}

		if ctx.Err() != nil {
			break
		}
	}

	log.WithField("attempted", strings.Join(result.Attempted, ",")).Error("All translation providers exhausted")
	result.Reason = FailureMessage
	return result
}

// applyDictionary substitutes guild dictionary terms in the source text.
// Longer terms are replaced first so that overlapping entries behave
// predictably.
func applyDictionary(text string, dict map[string]string) string {
	if len(dict) == 0 {
		return text
	}
	terms := make([]string, 0, len(dict))
	for term := range dict {
		if term != "" {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	for _, term := range terms {
		text = strings.ReplaceAll(text, term, dict[term])
	}
	return text
}
