package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectScriptClasses(t *testing.T) {
	d := Detector{}

	tests := []struct {
		name string
		text string
		want Script
	}{
		{"pure japanese", "明日の会議は何時からですか", ScriptJapanese},
		{"pure english", "Could we move the meeting to Friday?", ScriptEnglish},
		{"hiragana only", "おはようございます", ScriptJapanese},
		{"halfwidth katakana", "ｱﾘｶﾞﾄｳ", ScriptJapanese},
		{"balanced mix", "この資料をreviewしてもらえますか maybe later", ScriptMixed},
		{"empty", "", ScriptUnsupported},
		{"digits and punctuation", "12345 !?", ScriptUnsupported},
		{"emoji only", "👍🙏", ScriptUnsupported},
		{"korean", "안녕하세요", ScriptUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text), "text: %q", tt.text)
		})
	}
}

// The floor is inclusive and the ceiling exclusive: an English ratio of
// exactly 0.2 still classifies as Japanese, exactly 0.8 still as mixed.
func TestDetectThresholdBoundaries(t *testing.T) {
	d := Detector{}

	// 1 English letter against 4 Japanese characters: ratio = 0.2 exactly.
	assert.Equal(t, ScriptJapanese, d.Detect("会議は明x"))

	// 1 against 3: ratio = 0.25, inside the mixed band.
	assert.Equal(t, ScriptMixed, d.Detect("会議はx"))

	// 4 English letters against 1 Japanese character: ratio = 0.8 exactly,
	// still mixed; the ceiling does not include its boundary.
	assert.Equal(t, ScriptMixed, d.Detect("abcd会"))

	// 5 against 1: ratio ≈ 0.83, English.
	assert.Equal(t, ScriptEnglish, d.Detect("abcde会"))
}

func TestDetectLowercaseOnly(t *testing.T) {
	strict := Detector{LowercaseOnly: true}
	loose := Detector{}

	// An all-caps acronym is English under the default policy but carries no
	// signal under lowercase-only.
	assert.Equal(t, ScriptEnglish, loose.Detect("ASAP"))
	assert.Equal(t, ScriptUnsupported, strict.Detect("ASAP"))

	// Acronyms inside a Japanese sentence stop tipping the ratio.
	text := "NGです、APIとSDKの仕様を確認してください"
	assert.Equal(t, ScriptMixed, loose.Detect(text))
	assert.Equal(t, ScriptJapanese, strict.Detect(text))
}
