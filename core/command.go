package core

import "strings"

// CommandKind tags the result of a single parse over the incoming text.
type CommandKind int

const (
	CmdFreeText CommandKind = iota

	// Deferred-choice follow-ups to the mixed-language prompt. The original
	// text travels embedded in the option payload, so these bypass detection.
	CmdForwardChoice
	CmdReverseChoice

	// Fixed navigation.
	CmdHelp
	CmdHome
	CmdGuide

	// Settings menu tree.
	CmdLevelMenu
	CmdSetLevelScheme
	CmdSetLevelValue
	CmdSceneMenu
	CmdSetScene
	CmdToneMenu
	CmdSetToneDefault
	CmdStyleMenu
	CmdSetStyle

	// Operations on the last artifacts.
	CmdToneChange
	CmdAccept
)

// Command is the parsed form of one incoming message. Arg carries the
// embedded text, menu selection or tone label, depending on Kind.
type Command struct {
	Kind CommandKind
	Arg  string
}

// Command token vocabulary. These are product-facing strings: option payloads
// reference them, so changing one changes what deployed quick replies send.
const (
	tokForwardChoice = "英訳して>>"
	tokReverseChoice = "意味を教えて>>"

	tokHelp  = "ヘルプ"
	tokHome  = "ホーム"
	tokGuide = "使い方"

	tokLevelMenu     = "レベル設定"
	tokSchemePrefix  = "レベル方式:"
	tokLevelPrefix   = "レベル:"
	tokSceneMenu     = "利用シーン設定"
	tokScenePrefix   = "利用シーン:"
	tokToneMenu      = "トーン設定"
	tokToneDefPrefix = "トーン設定:"
	tokStyleMenu     = "スタイル設定"
	tokStylePrefix   = "スタイル:"

	tokToneChangePrefix = "トーン:"
	tokAccept           = "この英文でOK"
)

// ParseCommand maps incoming text to a Command in dispatch-precedence order:
// deferred-choice payloads, exact navigation tokens, settings tokens,
// tone-change, accept, then free text. Each branch is mutually exclusive by
// construction; the first match wins.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, tokForwardChoice):
		return Command{Kind: CmdForwardChoice, Arg: strings.TrimSpace(strings.TrimPrefix(text, tokForwardChoice))}
	case strings.HasPrefix(text, tokReverseChoice):
		return Command{Kind: CmdReverseChoice, Arg: strings.TrimSpace(strings.TrimPrefix(text, tokReverseChoice))}
	}

	switch text {
	case tokHelp, "help":
		return Command{Kind: CmdHelp}
	case tokHome, "home":
		return Command{Kind: CmdHome}
	case tokGuide:
		return Command{Kind: CmdGuide}
	case tokLevelMenu:
		return Command{Kind: CmdLevelMenu}
	case tokSceneMenu:
		return Command{Kind: CmdSceneMenu}
	case tokToneMenu:
		return Command{Kind: CmdToneMenu}
	case tokStyleMenu:
		return Command{Kind: CmdStyleMenu}
	}

	// tokToneDefPrefix must be tested before tokToneChangePrefix would ever
	// see it, but the two cannot collide: "トーン設定:" does not begin with
	// "トーン:" as a whole-prefix match fails on the 設 rune.
	switch {
	case strings.HasPrefix(text, tokSchemePrefix):
		return Command{Kind: CmdSetLevelScheme, Arg: strings.TrimPrefix(text, tokSchemePrefix)}
	case strings.HasPrefix(text, tokLevelPrefix):
		return Command{Kind: CmdSetLevelValue, Arg: strings.TrimPrefix(text, tokLevelPrefix)}
	case strings.HasPrefix(text, tokScenePrefix):
		return Command{Kind: CmdSetScene, Arg: strings.TrimPrefix(text, tokScenePrefix)}
	case strings.HasPrefix(text, tokToneDefPrefix):
		return Command{Kind: CmdSetToneDefault, Arg: strings.TrimPrefix(text, tokToneDefPrefix)}
	case strings.HasPrefix(text, tokStylePrefix):
		return Command{Kind: CmdSetStyle, Arg: strings.TrimPrefix(text, tokStylePrefix)}
	case strings.HasPrefix(text, tokToneChangePrefix):
		return Command{Kind: CmdToneChange, Arg: strings.TrimPrefix(text, tokToneChangePrefix)}
	case strings.Contains(text, tokAccept):
		return Command{Kind: CmdAccept}
	}

	return Command{Kind: CmdFreeText, Arg: text}
}

// ResolveToneLabel maps a possibly decorated tone label (emoji prefixes,
// trailing particles) to a Tone by substring containment. The first matching
// keyword wins, checked casual → polite → business; when nothing matches the
// caller's fallback (the stored default) applies.
func ResolveToneLabel(label string, fallback Tone) Tone {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(label, "カジュアル"), strings.Contains(lower, "casual"):
		return ToneCasual
	case strings.Contains(label, "丁寧"), strings.Contains(lower, "polite"):
		return TonePolite
	case strings.Contains(label, "ビジネス"), strings.Contains(lower, "business"):
		return ToneBusiness
	}
	return fallback
}

// schemeFromLabel resolves a scheme menu selection.
func schemeFromLabel(label string) (LevelScheme, bool) {
	switch strings.TrimSpace(label) {
	case "英検":
		return SchemeEiken, true
	case "TOEIC":
		return SchemeTOEIC, true
	case "ざっくり":
		return SchemeRough, true
	}
	return "", false
}

func sceneFromLabel(label string) (UsageScene, bool) {
	switch strings.TrimSpace(label) {
	case "日常会話":
		return SceneDaily, true
	case "社内ビジネス":
		return SceneInternal, true
	case "社外ビジネス":
		return SceneExternal, true
	}
	return "", false
}

func toneFromLabel(label string) (Tone, bool) {
	switch strings.TrimSpace(label) {
	case "カジュアル":
		return ToneCasual, true
	case "丁寧":
		return TonePolite, true
	case "ビジネス":
		return ToneBusiness, true
	}
	return "", false
}

func styleFromLabel(label string) (StyleVariant, bool) {
	switch strings.TrimSpace(label) {
	case "学習者向け":
		return StyleLearner, true
	case "アメリカ英語":
		return StyleAmerican, true
	case "イギリス英語":
		return StyleBritish, true
	}
	return "", false
}
