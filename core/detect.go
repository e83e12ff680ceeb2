package core

// Script is the detected script class of a free-text message.
type Script int

const (
	ScriptJapanese Script = iota
	ScriptEnglish
	ScriptMixed
	ScriptUnsupported
)

func (s Script) String() string {
	switch s {
	case ScriptJapanese:
		return "japanese"
	case ScriptEnglish:
		return "english"
	case ScriptMixed:
		return "mixed"
	default:
		return "unsupported"
	}
}

// Mixed-text thresholds on the English-letter ratio. Below the floor a few
// embedded acronyms or product names do not flip a Japanese message; above
// the ceiling a couple of Japanese words inside English text do not flip an
// English one. The floor is inclusive: exactly 0.2 is still Japanese. The
// ceiling is exclusive: exactly 0.8 is still mixed.
const (
	englishRatioFloor = 0.2
	englishRatioCeil  = 0.8
)

// Detector classifies text by counting characters of the Japanese script
// class (kana, kanji) against Latin letters.
//
// LowercaseOnly narrows the Latin test to lowercase letters so that a message
// consisting only of an acronym ("ASAP", "NG") is never classified as
// English. Off by default: all Latin letters count.
type Detector struct {
	LowercaseOnly bool
}

// Detect classifies text into one of the four script classes. Digits,
// punctuation, emoji and any unsupported script count toward neither class.
func (d Detector) Detect(text string) Script {
	var jp, en int
	for _, r := range text {
		switch {
		case isJapanese(r):
			jp++
		case d.isEnglishLetter(r):
			en++
		}
	}

	switch {
	case jp == 0 && en == 0:
		return ScriptUnsupported
	case en == 0:
		return ScriptJapanese
	case jp == 0:
		return ScriptEnglish
	}

	ratio := float64(en) / float64(en+jp)
	switch {
	case ratio <= englishRatioFloor:
		return ScriptJapanese
	case ratio > englishRatioCeil:
		return ScriptEnglish
	default:
		return ScriptMixed
	}
}

func isJapanese(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || // hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // katakana
		(r >= 0xFF66 && r <= 0xFF9D) || // halfwidth katakana
		(r >= 0x4E00 && r <= 0x9FFF) || // CJK unified ideographs
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0xF900 && r <= 0xFAFF)
}

func (d Detector) isEnglishLetter(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	if d.LowercaseOnly {
		return false
	}
	return r >= 'A' && r <= 'Z'
}
