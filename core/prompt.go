package core

import (
	"fmt"
	"strings"
)

// Prompt is a structured instruction set for the generation backend.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	JSONMode    bool // request a single JSON object as output
}

// BuildForwardPrompt encodes the user's level, scene, effective tone and
// style variant into instructions for one Japanese → English rendering.
// An empty override means the profile's default tone applies.
//
// Builders are pure: same profile and inputs always yield the same prompt.
func BuildForwardPrompt(p *Profile, sourceText string, override Tone) Prompt {
	tone := p.ToneDefault
	if override != "" {
		tone = override
	}

	var b strings.Builder
	b.WriteString("You are an English writing assistant for a Japanese speaker.\n")
	b.WriteString("Rewrite the user's Japanese message as natural English they could send as-is.\n")
	fmt.Fprintf(&b, "Learner level: %s. Prefer vocabulary and grammar the learner can own.\n", levelInstruction(p))
	fmt.Fprintf(&b, "Audience: %s.\n", sceneInstruction(p.UsageScene))
	fmt.Fprintf(&b, "Register: %s.\n", toneInstruction(tone))
	fmt.Fprintf(&b, "Variety: %s.\n", styleInstruction(p.StyleVariant))
	b.WriteString("Output exactly one English rendering. No Japanese, no alternatives, no explanations, no surrounding quotes.")

	return Prompt{System: b.String(), User: sourceText, Temperature: 0.7}
}

// BuildReversePrompt asks for a Japanese translation of English text plus up
// to five vocabulary items likely above the user's level, as one JSON object.
func BuildReversePrompt(p *Profile, targetText string) Prompt {
	var b strings.Builder
	b.WriteString("You are an English reading assistant for a Japanese learner.\n")
	fmt.Fprintf(&b, "Learner level: %s.\n", levelInstruction(p))
	b.WriteString("Translate the user's English message into natural Japanese.\n")
	b.WriteString("Then pick 0-5 words or expressions from the English text likely above the learner's level.\n")
	b.WriteString("For each, give a short Japanese gloss and, only when genuinely useful, a one-phrase note.\n")
	b.WriteString(`Respond with a single JSON object and nothing else: {"translation": string, "glossary": [{"term": string, "meaning": string, "note": string}]}`)

	return Prompt{System: b.String(), User: targetText, Temperature: 0.3, JSONMode: true}
}

// BuildUpgradePrompt asks for one alternative phrasing of already-acceptable
// English plus a short Japanese rationale. The register of the user's usage
// scene must be preserved; the alternative is a lesson, not a correction.
func BuildUpgradePrompt(p *Profile, acceptedText string) Prompt {
	var b strings.Builder
	b.WriteString("You are an English coach for a Japanese learner.\n")
	b.WriteString("The learner has accepted the following English sentence. It is already fine.\n")
	fmt.Fprintf(&b, "Propose exactly one alternative phrasing a proficient writer might use, keeping the register of %s. Do not shift the tone.\n", sceneInstruction(p.UsageScene))
	fmt.Fprintf(&b, "Learner level: %s. Add a one- or two-sentence rationale in Japanese.\n", levelInstruction(p))
	b.WriteString(`Respond with a single JSON object and nothing else: {"alternative": string, "rationale": string}`)

	return Prompt{System: b.String(), User: acceptedText, Temperature: 0.5, JSONMode: true}
}

func levelInstruction(p *Profile) string {
	switch p.LevelScheme {
	case SchemeEiken:
		return fmt.Sprintf("Eiken grade %s", p.LevelValue)
	case SchemeTOEIC:
		return fmt.Sprintf("TOEIC score around %s", p.LevelValue)
	default:
		switch p.LevelValue {
		case "初級":
			return "beginner"
		case "上級":
			return "advanced"
		default:
			return "intermediate"
		}
	}
}

func sceneInstruction(s UsageScene) string {
	switch s {
	case SceneInternal:
		return "colleagues inside the learner's company"
	case SceneExternal:
		return "clients and external business partners"
	default:
		return "everyday casual conversation"
	}
}

func toneInstruction(t Tone) string {
	switch t {
	case ToneCasual:
		return "casual and friendly"
	case ToneBusiness:
		return "formal business English"
	default:
		return "polite but not stiff"
	}
}

func styleInstruction(v StyleVariant) string {
	switch v {
	case StyleAmerican:
		return "American English"
	case StyleBritish:
		return "British English"
	default:
		return "neutral English, avoiding region-specific idioms"
	}
}
