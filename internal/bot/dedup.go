package bot

import (
	"strings"
	"time"

	"babelflag/internal/store"
	"babelflag/internal/translator"
)

// historyScanLimit caps how many thread messages the dedup gate inspects.
const historyScanLimit = 100

// inFlightTTL bounds how long an in-flight lock can outlive a crashed
// worker before the translation becomes retryable again.
const inFlightTTL = 2 * time.Minute

// Deduper decides whether a reaction should trigger a new translation. Posted
// translations are their own dedup record: a thread entry starting with
// "<emoji>: " means that language was already handled, unless it carries the
// cascade failure text, which stays retryable. A store lock guards against
// two near-simultaneous reactions racing the history scan.
type Deduper struct {
	store store.Store
}

// NewDeduper creates a Deduper on the given store.
func NewDeduper(s store.Store) *Deduper {
	return &Deduper{store: s}
}

// Marker returns the prefix a posted translation carries for its emoji.
func Marker(emoji string) string {
	return emoji + ": "
}

// ShouldAttempt scans recent thread messages for a prior translation under
// the same emoji. Failed attempts are retryable; succeeded ones are not.
func (d *Deduper) ShouldAttempt(emoji string, recent []string) bool {
	marker := Marker(emoji)
	n := len(recent)
	if n > historyScanLimit {
		n = historyScanLimit
	}
	for _, content := range recent[:n] {
		if !strings.HasPrefix(content, marker) {
			continue
		}
		rest := strings.TrimPrefix(content, marker)
		return rest == translator.FailureMessage
	}
	return true
}

func inFlightKey(messageID, lang string) string {
	return "translating:" + messageID + ":" + lang
}

// TryAcquire takes the in-flight lock for one message+language pair. Returns
// false when another worker already holds it.
func (d *Deduper) TryAcquire(messageID, lang string) bool {
	ok, err := d.store.SetNX(inFlightKey(messageID, lang), []byte("1"), inFlightTTL)
	if err != nil {
		// Store failures must not block translations; the history scan
		// still prevents duplicates in the common case.
		return true
	}
	return ok
}

// Release drops the in-flight lock.
func (d *Deduper) Release(messageID, lang string) {
	d.store.Delete(inFlightKey(messageID, lang))
}
