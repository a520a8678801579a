package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"babelflag/internal/store"
	"babelflag/internal/translator"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// gameSessionTTL is how long a guess stays open before it expires.
const gameSessionTTL = 5 * time.Minute

// gamePhrases is the English source pool for the minigame.
var gamePhrases = []string{
	"The quick brown fox jumps over the lazy dog.",
	"A journey of a thousand miles begins with a single step.",
	"The early bird catches the worm.",
	"Actions speak louder than words.",
	"Practice makes perfect.",
	"Better late than never.",
	"Every cloud has a silver lining.",
	"When in Rome, do as the Romans do.",
}

type gameSession struct {
	Lang   string `json:"lang"`
	Phrase string `json:"phrase"`
}

// GuessGame runs the guess-the-language minigame. One round can be active
// per channel; rounds expire on their own.
type GuessGame struct {
	store   store.Store
	cascade *translator.Cascade
}

// NewGuessGame creates a GuessGame.
func NewGuessGame(s store.Store, cascade *translator.Cascade) *GuessGame {
	return &GuessGame{store: s, cascade: cascade}
}

func gameKey(channelID string) string {
	return "guessgame:" + channelID
}

// LanguageName returns the English display name for a language code.
func LanguageName(code string) string {
	name := display.English.Languages().Name(language.Make(code))
	if name == "" {
		return code
	}
	return name
}

// Start opens a round: it translates a random phrase into a random language
// the guild has enabled and returns the text to post. Fails when a round is
// already open or no provider can translate the phrase. The round slot is
// claimed before any provider is called so an open round never costs quota.
func (g *GuessGame) Start(ctx context.Context, guildID, channelID string, enabled []string) (string, error) {
	candidates := candidateLanguages(enabled)
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidate languages enabled, add a non-English language first")
	}
	lang := candidates[rand.Intn(len(candidates))]
	phrase := gamePhrases[rand.Intn(len(gamePhrases))]

	session, err := json.Marshal(gameSession{Lang: lang, Phrase: phrase})
	if err != nil {
		return "", err
	}
	ok, err := g.store.SetNX(gameKey(channelID), session, gameSessionTTL)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("a round is already running in this channel")
	}

	res := g.cascade.Translate(ctx, translator.Request{
		Text:       phrase,
		TargetLang: lang,
		GuildID:    guildID,
	})
	if !res.Success {
		g.store.Delete(gameKey(channelID))
		return "", fmt.Errorf("could not prepare a round: %s", res.Reason)
	}

	logrus.WithFields(logrus.Fields{
		"guild_id":   guildID,
		"channel_id": channelID,
		"lang":       lang,
	}).Debug("Guess game round started")
	return fmt.Sprintf("🌍 Guess the language!\n> %s", res.Text), nil
}

// Answer checks a guess against the open round. The guess may be a language
// code or an English language name. Reports whether a round was open at all.
func (g *GuessGame) Answer(channelID, guess string) (reply string, open bool) {
	raw, err := g.store.Get(gameKey(channelID))
	if err == store.ErrNotFound {
		return "There is no open round. Start one first.", false
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to load guess game session")
		return "Something went wrong, try again.", false
	}

	var session gameSession
	if err := json.Unmarshal(raw, &session); err != nil {
		g.store.Delete(gameKey(channelID))
		return "Something went wrong, try again.", false
	}

	guess = strings.ToLower(strings.TrimSpace(guess))
	name := LanguageName(session.Lang)
	if guess == session.Lang || guess == strings.ToLower(name) {
		g.store.Delete(gameKey(channelID))
		return fmt.Sprintf("Correct! It was %s (%s). The original: %q", name, session.Lang, session.Phrase), true
	}
	return "Not quite, guess again!", true
}

// candidateLanguages is the guild's enabled languages minus English, which
// would make rounds trivial for an English-speaking guild.
func candidateLanguages(enabled []string) []string {
	var out []string
	for _, code := range enabled {
		if code != "en" {
			out = append(out, code)
		}
	}
	return out
}
