package core

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const turnTimeout = 90 * time.Second

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Store     ProfileStore
	Generator Generator
	Detector  Detector
	Quota     *QuotaLimiter // nil disables the daily quota

	// DegradeToDefaults serves scheme defaults for the turn when the store
	// read fails, instead of failing the turn. Availability over consistency;
	// writes during such a turn are lost.
	DegradeToDefaults bool
}

// Engine is the intent router. It is stateless between invocations: every
// decision is a function of the incoming text and the stored profile.
// Events for the same user are processed serially; different users run in
// parallel.
type Engine struct {
	store     ProfileStore
	gen       Generator
	detector  Detector
	quota     *QuotaLimiter
	degrade   bool
	platforms []Platform
	ctx       context.Context
	cancel    context.CancelFunc

	userLocks [lockStripes]sync.Mutex
}

// lockStripes bounds the lock pool: user IDs hash onto a fixed set of
// mutexes, so memory stays constant no matter how many users pass through.
// Two users sharing a stripe serialize against each other, which is safe,
// just occasionally slower.
const lockStripes = 64

func NewEngine(cfg EngineConfig, platforms []Platform) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		store:     cfg.Store,
		gen:       cfg.Generator,
		detector:  cfg.Detector,
		quota:     cfg.Quota,
		degrade:   cfg.DegradeToDefaults,
		platforms: platforms,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (e *Engine) Start() error {
	for _, p := range e.platforms {
		if err := p.Start(e.HandleMessage); err != nil {
			return fmt.Errorf("start platform %s: %w", p.Name(), err)
		}
		slog.Info("platform started", "platform", p.Name())
	}
	slog.Info("engine started", "platforms", len(e.platforms))
	return nil
}

func (e *Engine) Stop() error {
	e.cancel()
	e.quota.Stop()

	var errs []error
	for _, p := range e.platforms {
		if err := p.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop platform %s: %w", p.Name(), err))
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("engine stop errors: %v", errs)
	}
	return nil
}

// HandleMessage is the platform callback. Each event is processed in its own
// goroutine; a per-user lock serializes the read-modify-write cycle so a
// batch of events for one user cannot interleave and corrupt the paired
// last-turn fields.
func (e *Engine) HandleMessage(p Platform, msg *Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" || msg.UserID == "" {
		return
	}
	msg.Text = text
	go e.process(p, msg)
}

func (e *Engine) process(p Platform, msg *Message) {
	lock := e.userLock(msg.UserID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(e.ctx, turnTimeout)
	defer cancel()

	turn := uuid.NewString()[:8]
	log := slog.With("turn", turn, "platform", msg.Platform, "user", msg.UserID)
	log.Info("processing message", "text_len", len(msg.Text))

	profile, persisted, err := e.loadProfile(ctx, msg.UserID)
	if err != nil {
		log.Error("profile load failed", "error", err)
		e.reply(ctx, p, msg.ReplyCtx, []Outbound{{Text: msgStoreReadFailed}})
		return
	}
	if !persisted {
		log.Warn("store unavailable, serving defaults for this turn")
	}

	msgs := e.route(ctx, log, profile, persisted, msg.Text)
	e.reply(ctx, p, msg.ReplyCtx, finalizeTurn(msgs))
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &e.userLocks[h.Sum32()%lockStripes]
}

// loadProfile fetches or creates the profile. When the store is unreachable
// and degradation is enabled, a default profile backs the turn; persisted is
// false so handlers know writes will not stick.
func (e *Engine) loadProfile(ctx context.Context, userID string) (*Profile, bool, error) {
	profile, err := e.store.GetOrCreate(ctx, userID)
	if err == nil {
		return profile, true, nil
	}
	if errors.Is(err, ErrStoreUnavailable) && e.degrade {
		return NewProfile(userID), false, nil
	}
	return nil, false, err
}

// route dispatches one parsed command. First match wins; the branches mirror
// ParseCommand's precedence order.
func (e *Engine) route(ctx context.Context, log *slog.Logger, profile *Profile, persisted bool, text string) []Outbound {
	cmd := ParseCommand(text)

	switch cmd.Kind {
	case CmdForwardChoice:
		return e.handleForward(ctx, log, profile, persisted, cmd.Arg, "")
	case CmdReverseChoice:
		return e.handleReverse(ctx, log, profile, persisted, cmd.Arg)

	case CmdHelp:
		return []Outbound{{Text: msgHelp}}
	case CmdHome:
		return []Outbound{{Text: RenderHome(profile), Options: homeOptions()}}
	case CmdGuide:
		return []Outbound{{Text: msgGuide}}

	case CmdLevelMenu:
		return []Outbound{{Text: "どのレベル表記で教えてもらえますか？", Options: schemeMenuOptions()}}
	case CmdSetLevelScheme:
		return e.handleSetLevelScheme(ctx, log, profile, cmd.Arg)
	case CmdSetLevelValue:
		return e.handleSetLevelValue(ctx, log, profile, cmd.Arg)
	case CmdSceneMenu:
		return []Outbound{{Text: "主にどんな相手と英語を使いますか？", Options: sceneMenuOptions()}}
	case CmdSetScene:
		return e.handleSetScene(ctx, log, profile, cmd.Arg)
	case CmdToneMenu:
		return []Outbound{{Text: "ふだんのトーンを選んでください。", Options: toneMenuOptions()}}
	case CmdSetToneDefault:
		return e.handleSetToneDefault(ctx, log, profile, cmd.Arg)
	case CmdStyleMenu:
		return []Outbound{{Text: "英語のスタイルを選んでください。", Options: styleMenuOptions()}}
	case CmdSetStyle:
		return e.handleSetStyle(ctx, log, profile, cmd.Arg)

	case CmdToneChange:
		return e.handleToneChange(ctx, log, profile, persisted, cmd.Arg)
	case CmdAccept:
		return e.handleAccept(ctx, log, profile)
	}

	return e.handleFreeText(ctx, log, profile, persisted, cmd.Arg)
}

func (e *Engine) handleFreeText(ctx context.Context, log *slog.Logger, profile *Profile, persisted bool, text string) []Outbound {
	script := e.detector.Detect(text)
	log.Info("free text classified", "script", script.String())

	switch script {
	case ScriptJapanese:
		return e.handleForward(ctx, log, profile, persisted, text, "")
	case ScriptEnglish:
		return e.handleReverse(ctx, log, profile, persisted, text)
	case ScriptMixed:
		// No generation yet: the choice payloads carry the original text so
		// the next turn routes directly.
		return []Outbound{{Text: msgMixedPrompt, Options: disambigOptions(text)}}
	default:
		return []Outbound{{Text: msgUnsupported}}
	}
}

// handleForward generates one English rendering and stores the paired
// source/output artifact. An empty override uses the profile's default tone.
func (e *Engine) handleForward(ctx context.Context, log *slog.Logger, profile *Profile, persisted bool, source string, override Tone) []Outbound {
	if !e.quota.Allow(profile.UserID) {
		return []Outbound{{Text: msgQuotaExceeded}}
	}

	out, err := e.gen.Generate(ctx, BuildForwardPrompt(profile, source, override))
	if err != nil {
		log.Error("forward generation failed", "error", err)
		return []Outbound{{Text: msgGenerationFailed}}
	}
	out = strings.TrimSpace(out)

	mode := ModeToEnglish
	e.persistArtifact(ctx, log, profile, persisted, ProfilePatch{
		Forward:  &TurnArtifact{Source: source, Output: out},
		LastMode: &mode,
	})

	return []Outbound{{Text: out, Options: postForwardOptions()}}
}

// handleReverse translates English into Japanese with a glossary. A shape
// mismatch in the backend output degrades to the raw text as the translation
// with no glossary; only a generation failure aborts the turn.
func (e *Engine) handleReverse(ctx context.Context, log *slog.Logger, profile *Profile, persisted bool, text string) []Outbound {
	if !e.quota.Allow(profile.UserID) {
		return []Outbound{{Text: msgQuotaExceeded}}
	}

	raw, err := e.gen.Generate(ctx, BuildReversePrompt(profile, text))
	if err != nil {
		log.Error("reverse generation failed", "error", err)
		return []Outbound{{Text: msgGenerationFailed}}
	}

	var res ReverseResult
	if derr := DecodeStructured(raw, &res); derr != nil {
		log.Warn("reverse output not structured, using raw text", "error", derr)
		res = ReverseResult{Translation: StripFences(raw)}
	}
	if strings.TrimSpace(res.Translation) == "" {
		res.Translation = StripFences(raw)
	}

	mode := ModeToJapanese
	e.persistArtifact(ctx, log, profile, persisted, ProfilePatch{
		Reverse:  &TurnArtifact{Source: text, Output: res.Translation},
		LastMode: &mode,
	})

	return []Outbound{{Text: FormatReverse(res)}}
}

func (e *Engine) handleToneChange(ctx context.Context, log *slog.Logger, profile *Profile, persisted bool, label string) []Outbound {
	if profile.LastSourceText == "" {
		return []Outbound{{Text: msgNoForwardYet}}
	}
	tone := ResolveToneLabel(label, profile.ToneDefault)
	log.Info("tone change", "tone", string(tone))
	// Regenerate from the stored source, not from the generated output.
	return e.handleForward(ctx, log, profile, persisted, profile.LastSourceText, tone)
}

// handleAccept re-sends the accepted English verbatim as a copy-ready message
// and follows with a short lesson. The lesson degrades to a static line on
// any generation or parse failure; the copy message is always sent first.
func (e *Engine) handleAccept(ctx context.Context, log *slog.Logger, profile *Profile) []Outbound {
	if profile.LastGeneratedOutput == "" {
		return []Outbound{{Text: msgNoAcceptYet}}
	}

	copyMsg := Outbound{Text: profile.LastGeneratedOutput}
	lesson := msgLessonFallback

	if e.quota.Allow(profile.UserID) {
		raw, err := e.gen.Generate(ctx, BuildUpgradePrompt(profile, profile.LastGeneratedOutput))
		if err != nil {
			log.Error("upgrade generation failed", "error", err)
		} else {
			var res UpgradeResult
			if derr := DecodeStructured(raw, &res); derr != nil {
				log.Warn("upgrade output not structured", "error", derr)
			} else if strings.TrimSpace(res.Alternative) != "" {
				lesson = FormatUpgradeLesson(res)
			}
		}
	}

	return []Outbound{copyMsg, {Text: lesson}}
}

func (e *Engine) handleSetLevelScheme(ctx context.Context, log *slog.Logger, profile *Profile, label string) []Outbound {
	scheme, ok := schemeFromLabel(label)
	if !ok {
		return []Outbound{{Text: "どのレベル表記で教えてもらえますか？", Options: schemeMenuOptions()}}
	}
	// Switching schemes resets the value to the scheme default; the stored
	// value must always be valid under the stored scheme.
	value := DefaultLevelValue(scheme)
	if msgs := e.persistSetting(ctx, log, profile, ProfilePatch{LevelScheme: &scheme, LevelValue: &value}); msgs != nil {
		return msgs
	}
	return []Outbound{{
		Text:    fmt.Sprintf("%sで設定しますね。いまのレベルは？", schemeLabel(scheme)),
		Options: levelValueOptions(scheme),
	}}
}

func (e *Engine) handleSetLevelValue(ctx context.Context, log *slog.Logger, profile *Profile, value string) []Outbound {
	value = strings.TrimSpace(value)
	if !ValidLevelValue(profile.LevelScheme, value) {
		return []Outbound{{
			Text:    fmt.Sprintf("%sのレベルから選んでください。", schemeLabel(profile.LevelScheme)),
			Options: levelValueOptions(profile.LevelScheme),
		}}
	}
	if msgs := e.persistSetting(ctx, log, profile, ProfilePatch{LevelValue: &value}); msgs != nil {
		return msgs
	}
	return []Outbound{{
		Text:    fmt.Sprintf("レベルを「%s %s」に設定しました👍", schemeLabel(profile.LevelScheme), value),
		Options: postSettingsOptions(),
	}}
}

func (e *Engine) handleSetScene(ctx context.Context, log *slog.Logger, profile *Profile, label string) []Outbound {
	scene, ok := sceneFromLabel(label)
	if !ok {
		return []Outbound{{Text: "主にどんな相手と英語を使いますか？", Options: sceneMenuOptions()}}
	}
	if msgs := e.persistSetting(ctx, log, profile, ProfilePatch{UsageScene: &scene}); msgs != nil {
		return msgs
	}
	return []Outbound{{
		Text:    fmt.Sprintf("利用シーンを「%s」に設定しました👍", sceneLabel(scene)),
		Options: postSettingsOptions(),
	}}
}

func (e *Engine) handleSetToneDefault(ctx context.Context, log *slog.Logger, profile *Profile, label string) []Outbound {
	tone, ok := toneFromLabel(label)
	if !ok {
		return []Outbound{{Text: "ふだんのトーンを選んでください。", Options: toneMenuOptions()}}
	}
	if msgs := e.persistSetting(ctx, log, profile, ProfilePatch{ToneDefault: &tone}); msgs != nil {
		return msgs
	}
	return []Outbound{{
		Text:    fmt.Sprintf("ふだんのトーンを「%s」に設定しました👍", toneLabel(tone)),
		Options: postSettingsOptions(),
	}}
}

func (e *Engine) handleSetStyle(ctx context.Context, log *slog.Logger, profile *Profile, label string) []Outbound {
	style, ok := styleFromLabel(label)
	if !ok {
		return []Outbound{{Text: "英語のスタイルを選んでください。", Options: styleMenuOptions()}}
	}
	if msgs := e.persistSetting(ctx, log, profile, ProfilePatch{StyleVariant: &style}); msgs != nil {
		return msgs
	}
	return []Outbound{{
		Text:    fmt.Sprintf("スタイルを「%s」に設定しました👍", styleLabel(style)),
		Options: postSettingsOptions(),
	}}
}

// persistSetting writes a preference patch. A failed write surfaces to the
// user; the local profile copy is updated on success so the confirmation
// message reflects the new state.
func (e *Engine) persistSetting(ctx context.Context, log *slog.Logger, profile *Profile, patch ProfilePatch) []Outbound {
	if _, err := e.store.Update(ctx, profile.UserID, patch); err != nil {
		log.Error("profile update failed", "error", err)
		return []Outbound{{Text: msgStoreWriteFailed}}
	}
	profile.Apply(patch)
	return nil
}

// persistArtifact writes last-turn context after a successful generation.
// Unlike preference writes, a failure here does not void the turn: the
// artifact still goes out, the user just loses tone-change continuity.
func (e *Engine) persistArtifact(ctx context.Context, log *slog.Logger, profile *Profile, persisted bool, patch ProfilePatch) {
	profile.Apply(patch)
	if !persisted {
		return
	}
	if _, err := e.store.Update(ctx, profile.UserID, patch); err != nil {
		log.Error("artifact persist failed", "error", err)
	}
}

func (e *Engine) reply(ctx context.Context, p Platform, replyCtx any, msgs []Outbound) {
	if len(msgs) == 0 {
		return
	}
	if err := p.Reply(ctx, replyCtx, msgs); err != nil {
		slog.Error("platform reply failed", "platform", p.Name(), "error", err)
	}
}
