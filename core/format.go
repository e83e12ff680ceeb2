package core

import (
	"fmt"
	"strings"
)

// Static reply texts. The bot speaks Japanese to the user; generated English
// only ever appears inside artifacts.
const (
	msgHelp = `Kaiwaの使い方 💬

・日本語のメッセージを送ると、そのまま使える英文にします
・英語のメッセージを送ると、日本語訳と単語メモを返します
・「トーン:カジュアル」などで直前の英文を言い換えます
・「この英文でOK」で英文を確定し、ワンポイント解説を受け取れます

設定は「ホーム」から変更できます。`

	msgGuide = `もっと便利に使うには 📖

1. まず「レベル設定」で自分の英語レベルを教えてください。英文の語彙がレベルに合わせて変わります。
2. 「利用シーン設定」で相手(日常・社内・社外)を選ぶと、デフォルトの堅さが決まります。
3. 英文が届いたら「トーン:カジュアル」「トーン:丁寧」「トーン:ビジネス」で同じ内容を言い換えられます。
4. 気に入ったら「この英文でOK」。コピーしやすい形で再送し、ワンポイント解説を添えます。`

	msgUnsupported = "ごめんなさい、日本語と英語のメッセージだけ対応しています🙏"

	msgNoForwardYet = "先に英訳したい日本語メッセージを送ってください。その英文のトーンをあとから変えられます。"
	msgNoAcceptYet  = "まだ確定できる英文がありません。先に日本語メッセージを送って英文を作りましょう。"

	msgMixedPrompt = "日本語と英語が混ざっているみたいです。どちらにしますか？"

	msgGenerationFailed = "すみません、うまく生成できませんでした。少し時間をおいてもう一度お試しください🙏"
	msgStoreReadFailed  = "いま設定を読み込めませんでした。少し時間をおいてもう一度お試しください🙏"
	msgStoreWriteFailed = "いま設定を保存できませんでした。少し時間をおいてもう一度お試しください🙏"
	msgQuotaExceeded    = "今日の利用回数の上限に達しました。また明日使ってください🙇"

	msgLessonFallback = "この英文はそのまま使って大丈夫です👍"

	glossaryHeading = "📘 単語メモ"
)

// navOptions is the generic navigation set. Every turn carries at least
// these unless a more specific set replaces them.
func navOptions() []Option {
	return []Option{
		{Label: "ヘルプ", Text: tokHelp},
		{Label: "ホーム", Text: tokHome},
		{Label: "使い方", Text: tokGuide},
	}
}

// postForwardOptions follows a forward generation: tone changes operate on
// the stored source, accept operates on the stored output.
func postForwardOptions() []Option {
	return []Option{
		{Label: "😎 カジュアルに", Text: tokToneChangePrefix + "カジュアル"},
		{Label: "🙂 丁寧に", Text: tokToneChangePrefix + "丁寧"},
		{Label: "💼 ビジネスに", Text: tokToneChangePrefix + "ビジネス"},
		{Label: "✅ この英文でOK", Text: tokAccept},
		{Label: "ホーム", Text: tokHome},
	}
}

func postSettingsOptions() []Option {
	return []Option{
		{Label: "ホーム", Text: tokHome},
		{Label: "ヘルプ", Text: tokHelp},
	}
}

func homeOptions() []Option {
	return []Option{
		{Label: "レベル設定", Text: tokLevelMenu},
		{Label: "利用シーン設定", Text: tokSceneMenu},
		{Label: "トーン設定", Text: tokToneMenu},
		{Label: "スタイル設定", Text: tokStyleMenu},
		{Label: "使い方", Text: tokGuide},
	}
}

// disambigOptions embeds the original text in each payload so the follow-up
// turn can route without re-detection.
func disambigOptions(original string) []Option {
	return []Option{
		{Label: "英語にしたい", Text: tokForwardChoice + original},
		{Label: "意味を知りたい", Text: tokReverseChoice + original},
	}
}

func schemeMenuOptions() []Option {
	return []Option{
		{Label: "英検", Text: tokSchemePrefix + "英検"},
		{Label: "TOEIC", Text: tokSchemePrefix + "TOEIC"},
		{Label: "ざっくり", Text: tokSchemePrefix + "ざっくり"},
	}
}

func levelValueOptions(s LevelScheme) []Option {
	values := LevelValues(s)
	opts := make([]Option, 0, len(values))
	for _, v := range values {
		opts = append(opts, Option{Label: v, Text: tokLevelPrefix + v})
	}
	return opts
}

func sceneMenuOptions() []Option {
	return []Option{
		{Label: "日常会話", Text: tokScenePrefix + "日常会話"},
		{Label: "社内ビジネス", Text: tokScenePrefix + "社内ビジネス"},
		{Label: "社外ビジネス", Text: tokScenePrefix + "社外ビジネス"},
	}
}

func toneMenuOptions() []Option {
	return []Option{
		{Label: "カジュアル", Text: tokToneDefPrefix + "カジュアル"},
		{Label: "丁寧", Text: tokToneDefPrefix + "丁寧"},
		{Label: "ビジネス", Text: tokToneDefPrefix + "ビジネス"},
	}
}

func styleMenuOptions() []Option {
	return []Option{
		{Label: "学習者向け", Text: tokStylePrefix + "学習者向け"},
		{Label: "アメリカ英語", Text: tokStylePrefix + "アメリカ英語"},
		{Label: "イギリス英語", Text: tokStylePrefix + "イギリス英語"},
	}
}

// FormatReverse renders a reverse result: the translation followed by a
// glossary section. Entries without a term are skipped; the note decoration
// is omitted when the note is empty.
func FormatReverse(res ReverseResult) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(res.Translation))

	var lines []string
	for _, item := range res.Glossary {
		if strings.TrimSpace(item.Term) == "" {
			continue
		}
		line := fmt.Sprintf("%s: %s", item.Term, item.Meaning)
		if strings.TrimSpace(item.Note) != "" {
			line += fmt.Sprintf("（%s）", item.Note)
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		b.WriteString("\n\n")
		b.WriteString(glossaryHeading)
		for _, line := range lines {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

// FormatUpgradeLesson renders the accept/upgrade lesson message.
func FormatUpgradeLesson(res UpgradeResult) string {
	return fmt.Sprintf("✨ こんな言い方もできます\n%s\n\n%s",
		strings.TrimSpace(res.Alternative), strings.TrimSpace(res.Rationale))
}

// RenderHome shows the full profile state.
func RenderHome(p *Profile) string {
	var b strings.Builder
	b.WriteString("いまの設定 🏠\n\n")
	fmt.Fprintf(&b, "レベル: %s %s\n", schemeLabel(p.LevelScheme), p.LevelValue)
	fmt.Fprintf(&b, "利用シーン: %s\n", sceneLabel(p.UsageScene))
	fmt.Fprintf(&b, "トーン: %s\n", toneLabel(p.ToneDefault))
	fmt.Fprintf(&b, "スタイル: %s", styleLabel(p.StyleVariant))
	return b.String()
}

func schemeLabel(s LevelScheme) string {
	switch s {
	case SchemeEiken:
		return "英検"
	case SchemeTOEIC:
		return "TOEIC"
	default:
		return "ざっくり"
	}
}

func sceneLabel(s UsageScene) string {
	switch s {
	case SceneInternal:
		return "社内ビジネス"
	case SceneExternal:
		return "社外ビジネス"
	default:
		return "日常会話"
	}
}

func toneLabel(t Tone) string {
	switch t {
	case ToneCasual:
		return "カジュアル"
	case ToneBusiness:
		return "ビジネス"
	default:
		return "丁寧"
	}
}

func styleLabel(v StyleVariant) string {
	switch v {
	case StyleAmerican:
		return "アメリカ英語"
	case StyleBritish:
		return "イギリス英語"
	default:
		return "学習者向け"
	}
}

// finalizeTurn guarantees the user always has a way back: when no message in
// the turn carries options, the generic navigation set is attached to the
// last one.
func finalizeTurn(msgs []Outbound) []Outbound {
	if len(msgs) == 0 {
		return msgs
	}
	for _, m := range msgs {
		if len(m.Options) > 0 {
			return msgs
		}
	}
	msgs[len(msgs)-1].Options = navOptions()
	return msgs
}
