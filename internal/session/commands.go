package session

import (
	"context"
	"fmt"

	"github.com/jpalmerr/distroboard/internal/store"
	"github.com/jpalmerr/distroboard/source"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to [Confirmer].
type ConfirmFunc func(prompt string) bool

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Outcome is the result of a blocking request.
type Outcome string

const (
	// OutcomeDeclined means the operator did not confirm; nothing was sent.
	OutcomeDeclined Outcome = "declined"

	// OutcomeApplied means the remote update succeeded.
	OutcomeApplied Outcome = "applied"

	// OutcomeFailed means the remote update failed. The view is left alone
	// and catches up on the next successful poll.
	OutcomeFailed Outcome = "failed"
)

// Blocking actions.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
)

// EnablePrompt is the confirmation question for enabling blocking.
func EnablePrompt(domain string) string {
	return fmt.Sprintf("Enable blocking for %s?", domain)
}

// DisablePrompt is the confirmation question for disabling blocking.
func DisablePrompt(domain string) string {
	return fmt.Sprintf("Disable blocking for %s?", domain)
}

// RequestEnableBlocking asks c to confirm, then sets distro_open=false for
// rec's domain.
func (s *Session) RequestEnableBlocking(ctx context.Context, rec store.Record, c Confirmer) Outcome {
	return s.requestBlocking(ctx, rec, c, ActionEnable)
}

// RequestDisableBlocking asks c to confirm, then sets distro_open=true for
// rec's domain.
func (s *Session) RequestDisableBlocking(ctx context.Context, rec store.Record, c Confirmer) Outcome {
	return s.requestBlocking(ctx, rec, c, ActionDisable)
}

func (s *Session) requestBlocking(ctx context.Context, rec store.Record, c Confirmer, action string) Outcome {
	prompt := EnablePrompt(rec.Domain)
	open := false
	if action == ActionDisable {
		prompt = DisablePrompt(rec.Domain)
		open = true
	}

	if c == nil || !c.Confirm(prompt) {
		s.logger.Debug("blocking request declined", "action", action, "domain", rec.Domain)
		s.metrics.BlockingRequest(action, string(OutcomeDeclined))
		return OutcomeDeclined
	}

	src, err := s.commandSource()
	if err == nil {
		err = src.SetDistroOpen(ctx, rec.Domain, open)
	}
	if err != nil {
		s.logger.Error("blocking request failed",
			"action", action,
			"domain", rec.Domain,
			"error", err.Error(),
		)
		s.metrics.BlockingRequest(action, string(OutcomeFailed))
		return OutcomeFailed
	}

	s.logger.Info("blocking request applied",
		"action", action,
		"domain", rec.Domain,
		"distro_open", open,
	)
	s.metrics.BlockingRequest(action, string(OutcomeApplied))
	return OutcomeApplied
}

// commandSource returns the running session's source, or builds one from the
// stored credentials when no session is running.
func (s *Session) commandSource() (source.Source, error) {
	s.mu.Lock()
	src := s.src
	running := s.running
	s.mu.Unlock()

	if running && src != nil {
		return src, nil
	}

	creds, err := s.creds.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if !creds.Complete() {
		return nil, ErrIncompleteCredentials
	}
	return s.sources(creds.WithDefaults())
}
