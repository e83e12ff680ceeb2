package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildForwardPromptDeterministic(t *testing.T) {
	p := NewProfile("u1")

	a := BuildForwardPrompt(p, "明日の会議お願いします", "")
	b := BuildForwardPrompt(p, "明日の会議お願いします", "")
	assert.Equal(t, a, b)

	assert.Equal(t, "明日の会議お願いします", a.User)
	assert.False(t, a.JSONMode)
	assert.Contains(t, a.System, "exactly one English rendering")
}

func TestBuildForwardPromptToneOverride(t *testing.T) {
	p := NewProfile("u1") // default tone is polite

	def := BuildForwardPrompt(p, "了解です", "")
	assert.Contains(t, def.System, "polite")

	over := BuildForwardPrompt(p, "了解です", ToneBusiness)
	assert.Contains(t, over.System, "formal business English")
	assert.NotContains(t, over.System, "polite but not stiff")

	// The override is per-call: the profile default is untouched.
	assert.Equal(t, TonePolite, p.ToneDefault)
}

func TestBuildForwardPromptEncodesProfile(t *testing.T) {
	p := NewProfile("u1")
	p.LevelScheme = SchemeTOEIC
	p.LevelValue = "860〜"
	p.UsageScene = SceneExternal
	p.StyleVariant = StyleBritish

	prompt := BuildForwardPrompt(p, "お世話になっております", "")
	assert.Contains(t, prompt.System, "TOEIC score around 860〜")
	assert.Contains(t, prompt.System, "external business partners")
	assert.Contains(t, prompt.System, "British English")
}

func TestBuildReversePrompt(t *testing.T) {
	p := NewProfile("u1")
	p.LevelScheme = SchemeEiken
	p.LevelValue = "準2級"

	prompt := BuildReversePrompt(p, "Let's touch base offline.")
	assert.True(t, prompt.JSONMode)
	assert.Equal(t, "Let's touch base offline.", prompt.User)
	assert.Contains(t, prompt.System, "Eiken grade 準2級")
	assert.Contains(t, prompt.System, `"translation"`)
	assert.Contains(t, prompt.System, `"glossary"`)
	// Reverse runs cooler than forward.
	assert.Less(t, prompt.Temperature, BuildForwardPrompt(p, "x", "").Temperature)
}

func TestBuildUpgradePrompt(t *testing.T) {
	p := NewProfile("u1")
	p.UsageScene = SceneInternal

	prompt := BuildUpgradePrompt(p, "I will send the file later.")
	assert.True(t, prompt.JSONMode)
	assert.Equal(t, "I will send the file later.", prompt.User)
	assert.Contains(t, prompt.System, "colleagues inside")
	assert.Contains(t, prompt.System, `"alternative"`)
	assert.Contains(t, prompt.System, `"rationale"`)
}

func TestLevelInstructionRough(t *testing.T) {
	p := NewProfile("u1")

	for value, want := range map[string]string{
		"初級": "beginner",
		"中級": "intermediate",
		"上級": "advanced",
	} {
		p.LevelValue = value
		prompt := BuildForwardPrompt(p, "テスト", "")
		assert.True(t, strings.Contains(prompt.System, want), "value %q should map to %q", value, want)
	}
}
