package generation

import "strings"

// chineseVariants are language tags treated as the same language for
// translation purposes: translating between regional variants of
// Chinese is not supported and not useful for summaries.
var chineseVariants = map[string]bool{
	"zh":      true,
	"zh-cn":   true,
	"zh-hans": true,
	"zh-tw":   true,
	"zh-hant": true,
}

// languageNames maps common language tags to the names used in prompts.
var languageNames = map[string]string{
	"en": "English",
	"zh": "中文（简体）",
	"es": "Español",
	"fr": "Français",
	"de": "Deutsch",
	"it": "Italiano",
	"pt": "Português",
	"ru": "Русский",
	"ja": "日本語",
	"ko": "한국어",
	"ar": "العربية",
}

// ShouldTranslate reports whether text in sourceLanguage needs
// translation to targetLanguage. Equivalent languages, including
// regional variants of Chinese, do not.
func ShouldTranslate(sourceLanguage, targetLanguage string) bool {
	src := normalizeTag(sourceLanguage)
	tgt := normalizeTag(targetLanguage)

	if src == "" || tgt == "" {
		return false
	}
	if src == tgt {
		return false
	}
	if chineseVariants[src] && chineseVariants[tgt] {
		return false
	}
	return true
}

// LanguageName returns the prompt-friendly name for a language tag,
// falling back to the tag itself.
func LanguageName(tag string) string {
	if name, ok := languageNames[normalizeTag(tag)]; ok {
		return name
	}
	return tag
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
