package bot

import (
	"strings"

	"babelflag/internal/services"
	"babelflag/internal/types"
)

// PlaceholderFlag is used when no emoji can be derived for a language code.
const PlaceholderFlag = "🏳️"

const regionalIndicatorBase = 0x1F1E6

// regionalIndicators converts a two-letter code into its regional indicator
// pair. Returns "" for codes that are not exactly two ASCII letters.
func regionalIndicators(code string) string {
	code = strings.ToLower(code)
	if len(code) != 2 {
		return ""
	}
	var out []rune
	for _, c := range code {
		if c < 'a' || c > 'z' {
			return ""
		}
		out = append(out, regionalIndicatorBase+c-'a')
	}
	return string(out)
}

// decodeRegionalIndicators reverses regionalIndicators. Returns "" when the
// emoji is not a plain two-rune indicator pair.
func decodeRegionalIndicators(emoji string) string {
	runes := []rune(emoji)
	if len(runes) != 2 {
		return ""
	}
	var out []byte
	for _, r := range runes {
		if r < regionalIndicatorBase || r > regionalIndicatorBase+25 {
			return ""
		}
		out = append(out, byte('a'+r-regionalIndicatorBase))
	}
	return string(out)
}

// FlagForLanguage resolves the emoji used to offer a language. Guild custom
// flags win over the global defaults; unknown codes fall back to the code's
// regional indicator pair, then to the placeholder flag.
func FlagForLanguage(lang string, settings *services.GuildSettings, defaults types.GlobalDefaults) string {
	lang = strings.ToLower(lang)
	if settings != nil {
		// Several emojis may map to the same language; pick the smallest
		// so repeated seeding always offers the same flag.
		var best string
		for emoji, l := range settings.CustomFlags {
			if l == lang && (best == "" || emoji < best) {
				best = emoji
			}
		}
		if best != "" {
			return best
		}
	}
	if emoji, ok := defaults.DefaultFlags[lang]; ok {
		return emoji
	}
	if emoji := regionalIndicators(lang); emoji != "" {
		return emoji
	}
	return PlaceholderFlag
}

// LanguageForEmoji resolves a reacted emoji to an enabled language code.
// Returns false when the emoji maps to nothing, or to a language the guild
// has not enabled.
func LanguageForEmoji(emoji string, settings *services.GuildSettings, defaults types.GlobalDefaults) (string, bool) {
	enabled := func(lang string) bool {
		for _, l := range settings.Languages {
			if l == lang {
				return true
			}
		}
		return false
	}

	if lang, ok := settings.CustomFlags[emoji]; ok && enabled(lang) {
		return lang, true
	}
	for lang, flag := range defaults.DefaultFlags {
		if flag == emoji && enabled(lang) {
			return lang, true
		}
	}
	if code := decodeRegionalIndicators(emoji); code != "" && enabled(code) {
		return code, true
	}
	return "", false
}
