package core

import "time"

// LevelScheme identifies which leveling system the user's self-reported
// English proficiency is expressed in.
type LevelScheme string

const (
	SchemeEiken LevelScheme = "eiken" // Eiken grade, e.g. 準1級
	SchemeTOEIC LevelScheme = "toeic" // TOEIC score bucket
	SchemeRough LevelScheme = "rough" // rough three-step self assessment
)

// UsageScene is the default audience/register the user writes for.
type UsageScene string

const (
	SceneDaily    UsageScene = "daily"
	SceneInternal UsageScene = "internal_business"
	SceneExternal UsageScene = "external_business"
)

// Tone is a register overlay, independent of the usage scene.
type Tone string

const (
	ToneCasual   Tone = "casual"
	TonePolite   Tone = "polite"
	ToneBusiness Tone = "business"
)

// StyleVariant is the target-language flavor preference.
type StyleVariant string

const (
	StyleLearner  StyleVariant = "learner" // plain vocabulary, learner-safe
	StyleAmerican StyleVariant = "american"
	StyleBritish  StyleVariant = "british"
)

// Mode records which direction produced the most recent artifact.
type Mode string

const (
	ModeToEnglish  Mode = "to_english"
	ModeToJapanese Mode = "to_japanese"
)

// Profile is the per-user preference and last-turn context record. It is
// owned by the ProfileStore and mutated only through Update patches.
type Profile struct {
	UserID       string
	LevelScheme  LevelScheme
	LevelValue   string
	UsageScene   UsageScene
	ToneDefault  Tone
	StyleVariant StyleVariant

	// LastSourceText and LastGeneratedOutput always refer to the same turn.
	// Tone-change commands regenerate from LastSourceText, not from the
	// already-generated output.
	LastSourceText      string
	LastGeneratedOutput string

	// The equivalent pair for the reverse direction.
	LastReverseSource string
	LastReverseOutput string

	LastMode Mode // empty until the first successful generation

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile returns a profile with first-contact defaults.
func NewProfile(userID string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		UserID:       userID,
		LevelScheme:  SchemeRough,
		LevelValue:   DefaultLevelValue(SchemeRough),
		UsageScene:   SceneDaily,
		ToneDefault:  TonePolite,
		StyleVariant: StyleLearner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var levelValues = map[LevelScheme][]string{
	SchemeEiken: {"5級", "4級", "3級", "準2級", "2級", "準1級", "1級"},
	SchemeTOEIC: {"〜400", "400〜600", "600〜730", "730〜860", "860〜"},
	SchemeRough: {"初級", "中級", "上級"},
}

// LevelValues returns the fixed set of valid level codes for a scheme.
func LevelValues(s LevelScheme) []string {
	return levelValues[s]
}

// ValidLevelValue reports whether v is a valid level code under scheme s.
func ValidLevelValue(s LevelScheme, v string) bool {
	for _, code := range levelValues[s] {
		if code == v {
			return true
		}
	}
	return false
}

// DefaultLevelValue is the level assigned when a scheme is first chosen.
func DefaultLevelValue(s LevelScheme) string {
	switch s {
	case SchemeEiken:
		return "3級"
	case SchemeTOEIC:
		return "600〜730"
	default:
		return "中級"
	}
}

// TurnArtifact pairs the input and the generated output of one turn. The
// paired last-turn fields of a profile can only be written through this type,
// so a patch can never leave one half reflecting an older turn.
type TurnArtifact struct {
	Source string
	Output string
}

// ProfilePatch is a partial update; nil fields are left untouched.
type ProfilePatch struct {
	LevelScheme  *LevelScheme
	LevelValue   *string
	UsageScene   *UsageScene
	ToneDefault  *Tone
	StyleVariant *StyleVariant
	Forward      *TurnArtifact // LastSourceText + LastGeneratedOutput as a unit
	Reverse      *TurnArtifact // LastReverseSource + LastReverseOutput as a unit
	LastMode     *Mode
}

// IsZero reports whether the patch would change nothing.
func (p ProfilePatch) IsZero() bool {
	return p.LevelScheme == nil && p.LevelValue == nil && p.UsageScene == nil &&
		p.ToneDefault == nil && p.StyleVariant == nil &&
		p.Forward == nil && p.Reverse == nil && p.LastMode == nil
}

// Apply mutates the profile in place. Store backends that hold profiles in
// process memory use this; SQL/document backends translate the patch into a
// single write instead.
func (pr *Profile) Apply(patch ProfilePatch) {
	if patch.LevelScheme != nil {
		pr.LevelScheme = *patch.LevelScheme
	}
	if patch.LevelValue != nil {
		pr.LevelValue = *patch.LevelValue
	}
	if patch.UsageScene != nil {
		pr.UsageScene = *patch.UsageScene
	}
	if patch.ToneDefault != nil {
		pr.ToneDefault = *patch.ToneDefault
	}
	if patch.StyleVariant != nil {
		pr.StyleVariant = *patch.StyleVariant
	}
	if patch.Forward != nil {
		pr.LastSourceText = patch.Forward.Source
		pr.LastGeneratedOutput = patch.Forward.Output
	}
	if patch.Reverse != nil {
		pr.LastReverseSource = patch.Reverse.Source
		pr.LastReverseOutput = patch.Reverse.Output
	}
	if patch.LastMode != nil {
		pr.LastMode = *patch.LastMode
	}
	pr.UpdatedAt = time.Now().UTC()
}
