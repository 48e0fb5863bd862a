package entities

type Language string

const (
	LanguageAmharic Language = "am"
	LanguageEnglish Language = "en"
	LanguageAuto    Language = "auto"
)

// Ethiopic block used for Amharic script detection.
const (
	ethiopicStart = '\u1200'
	ethiopicEnd   = '\u137F'
)

func ContainsEthiopic(text string) bool {
	for _, r := range text {
		if r >= ethiopicStart && r <= ethiopicEnd {
			return true
		}
	}
	return false
}

// DetectLanguage returns am when any Ethiopic code point is present, en otherwise.
func DetectLanguage(text string) Language {
	if ContainsEthiopic(text) {
		return LanguageAmharic
	}
	return LanguageEnglish
}

// ResolveLanguage keeps an explicit am/en choice and detects from the text otherwise.
func ResolveLanguage(explicit string, text string) Language {
	switch Language(explicit) {
	case LanguageAmharic, LanguageEnglish:
		return Language(explicit)
	}
	return DetectLanguage(text)
}

func (l Language) Valid() bool {
	switch l {
	case LanguageAmharic, LanguageEnglish, LanguageAuto:
		return true
	}
	return false
}
