// Package chat implements the conversational response pipeline: prompt
// assembly, completion, directive parsing, effect application and drip-fed
// delivery, coordinated per character with an exclusive turn guard.
package chat

import (
	"context"
	"strings"
	"time"

	"strawberryphone/ai"
	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
	"strawberryphone/pkg/errors"
	"strawberryphone/pkg/logger"
)

const proactiveNudge = "(It's been a while since the user last wrote. Send them a short message to restart the conversation.)"

// Service is the response orchestrator. Exactly one pipeline run may be in
// flight per character; a second trigger is rejected with a busy error rather
// than interleaved, since both would read-modify-write the same history and
// wallet fields.
type Service struct {
	state     *state.State
	completer ai.Completer
	prompts   *PromptBuilder
	applier   *Applier
	dripper   *Dripper
	events    Events
	log       *logger.Logger
}

// Option adjusts service behavior at construction time
type Option func(*Service)

// WithDripPacing overrides the pause between dripped sentences
func WithDripPacing(delay func() time.Duration, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.dripper.delay = delay
		s.dripper.sleep = sleep
	}
}

func NewService(st *state.State, completer ai.Completer, events Events, opts ...Option) *Service {
	if events == nil {
		events = NopEvents{}
	}
	s := &Service{
		state:     st,
		completer: completer,
		prompts:   NewPromptBuilder(st),
		applier:   NewApplier(st, events),
		dripper:   NewDripper(st, events),
		events:    events,
		log:       logger.GetGlobal().WithComponent("chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RespondTo runs one full response pipeline for the character: build prompt,
// complete, parse, apply effects, drip. Fails before mutating: any error up
// to and including speaker resolution leaves history untouched.
func (s *Service) RespondTo(ctx context.Context, charID string) error {
	return s.runTurn(ctx, charID, false)
}

// Continue re-invokes the model with a synthetic "continue" user turn,
// without appending anything to history for the request itself.
func (s *Service) Continue(ctx context.Context, charID string) error {
	return s.runTurn(ctx, charID, true)
}

func (s *Service) runTurn(ctx context.Context, charID string, continuation bool) error {
	c, ok := s.state.Character(charID)
	if !ok {
		return nil
	}
	if !s.state.TryBeginTurn(charID) {
		err := errors.NewBusyError(c.Name)
		s.events.Notice(err.Message)
		return err
	}
	defer s.state.EndTurn(charID)
	return s.respond(ctx, c, continuation)
}

func (s *Service) respond(ctx context.Context, c *models.Character, continuation bool) error {
	s.events.Typing(c.ID, true)
	defer s.events.Typing(c.ID, false)

	system, turns := s.prompts.Build(c, continuation)
	if len(turns) == 0 {
		// Nothing to respond to; not an error.
		return nil
	}

	reply, err := s.complete(ctx, system, turns)
	if err != nil {
		return s.fail(c.ID, err)
	}
	return s.deliver(ctx, c, reply)
}

// deliver takes a raw reply through speaker resolution, directive parsing,
// effects and dripping. History is mutated only after the reply is fully
// resolved.
func (s *Service) deliver(ctx context.Context, c *models.Character, reply string) error {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return s.fail(c.ID, errors.NewEmptyResponseError())
	}

	speaker := c
	body := reply
	if c.IsGroup {
		var err error
		speaker, body, err = s.resolveSpeaker(c, reply)
		if err != nil {
			return s.fail(c.ID, err)
		}
	}

	directive, rest := ParseDirective(body)
	if directive.Kind != DirectiveNone {
		directivesTotal.WithLabelValues(string(directive.Kind)).Inc()
	}
	if directive.Dice {
		directivesTotal.WithLabelValues("dice").Inc()
	}
	if err := s.applier.Apply(c.ID, speaker, directive); err != nil {
		return s.fail(c.ID, err)
	}

	s.notifyIfUnfocused(c, speaker, body)

	offline := !c.IsGroup && c.OfflineMode.Enabled
	n, err := s.dripper.Drip(ctx, c.ID, speaker, rest, offline)
	drippedMessages.Add(float64(n))
	if err != nil {
		return s.fail(c.ID, err)
	}
	responsesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) complete(ctx context.Context, system string, turns []ai.Turn) (string, error) {
	settings := s.state.Settings()
	req := ai.Request{
		System:      system,
		Turns:       turns,
		Model:       ai.SanitizeModel(settings.Model),
		Temperature: settings.Temperature,
		APIKey:      settings.APIKey,
		BaseURL:     settings.BaseURL,
	}
	start := time.Now()
	reply, err := s.completer.Complete(ctx, req)
	completionSeconds.Observe(time.Since(start).Seconds())
	return reply, err
}

// resolveSpeaker matches a group reply's "<name>: <body>" prefix against the
// current members. An unknown or missing name discards the whole turn.
func (s *Service) resolveSpeaker(c *models.Character, reply string) (*models.Character, string, error) {
	name, body, found := strings.Cut(reply, ":")
	if !found || strings.Contains(name, "\n") {
		return nil, "", errors.NewMalformedReplyError("the reply did not name a speaker")
	}
	name = strings.TrimSpace(name)
	for _, id := range c.Members {
		member, ok := s.state.Character(id)
		if ok && member.Name == name {
			return member, strings.TrimSpace(body), nil
		}
	}
	return nil, "", errors.Newf(errors.KindMalformedReply, "%q is not a member of this group", name)
}

// notifyIfUnfocused handles unread bookkeeping: when the chat view for this
// character is not active, bump the unread counter and raise a notification
// attributed to the speaker, with a directive-stripped preview of the reply's
// first line. In a group the speaker is the resolved member, not the group.
// A reply that is all directive yields no preview and no notification.
func (s *Service) notifyIfUnfocused(c, speaker *models.Character, body string) {
	if s.state.ActiveChat() == c.ID {
		return
	}
	count := 0
	ok, err := s.state.MutateCharacter(c.ID, func(mc *models.Character) {
		mc.UnreadCount++
		count = mc.UnreadCount
	})
	if err != nil {
		s.log.LogError(err, "persisting unread counter")
	}
	if !ok {
		return
	}
	s.events.UnreadChanged(c.ID, count)

	preview, _, _ := strings.Cut(body, "\n")
	preview = StripLeadingDirective(strings.TrimSpace(preview))
	if preview == "" {
		return
	}
	s.events.Notification(speaker.Name, preview, speaker.Avatar)
}

// fail reports a pipeline error: metric, log, transient user notice. The
// typing indicator is cleared by respond's defer and history keeps whatever
// state it had before the failing step.
func (s *Service) fail(charID string, err error) error {
	responsesTotal.WithLabelValues(string(errors.KindOf(err))).Inc()
	s.log.WithCharacter(charID).LogError(err, "response pipeline failed")
	s.events.Notice(err.Error())
	return err
}

// RespondProactively runs the pipeline for an idle character without a user
// trigger. A busy character is skipped quietly; background tasks never
// surface busy errors.
func (s *Service) RespondProactively(ctx context.Context, charID string) error {
	c, ok := s.state.Character(charID)
	if !ok || c.IsGroup {
		return nil
	}
	if !s.state.TryBeginTurn(charID) {
		return nil
	}
	defer s.state.EndTurn(charID)

	s.events.Typing(c.ID, true)
	defer s.events.Typing(c.ID, false)

	system, turns := s.prompts.Build(c, false)
	turns = append(turns, ai.Turn{Role: ai.RoleUser, Text: proactiveNudge})
	reply, err := s.complete(ctx, system, turns)
	if err != nil {
		s.log.WithCharacter(charID).LogError(err, "proactive message failed")
		return err
	}
	return s.deliver(ctx, c, reply)
}

// Generate runs a one-shot completion with the user's saved backend settings.
// Background features (moment text, AI comments) build their own prompts and
// call this directly, skipping dripping and speaker resolution.
func (s *Service) Generate(ctx context.Context, system string, turns []ai.Turn) (string, error) {
	return s.complete(ctx, system, turns)
}
