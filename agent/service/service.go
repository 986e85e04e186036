// Package service is the boundary the transport layer calls: login, the two
// chat personas, history, and reports. It owns turn serialization per
// identity and the append-run-append discipline around the agent loop.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	assistantx "github.com/kittipos/clinic-concierge/agent/agents/assistant"
	contractx "github.com/kittipos/clinic-concierge/agent/contract"
	sessionx "github.com/kittipos/clinic-concierge/agent/session"
	toolx "github.com/kittipos/clinic-concierge/agent/tool"
)

// Authenticator is the credential check against the record store.
type Authenticator interface {
	Authenticate(ctx context.Context, loginID, password, typ string) (*contractx.User, error)
}

// ReportRunner is the non-conversational report path.
type ReportRunner interface {
	GenerateAndNotify(ctx context.Context, doctorID string, notify bool) (contractx.ReportResult, error)
}

type Service struct {
	sessions sessionx.Store
	users    Authenticator
	patient  *assistantx.Assistant
	doctor   *assistantx.Assistant
	deps     toolx.Deps
	reports  ReportRunner

	// One lock per identity: a turn that raced another for the same
	// session would have undefined message ordering.
	turns sync.Map
}

func New(
	sessions sessionx.Store,
	users Authenticator,
	patient, doctor *assistantx.Assistant,
	deps toolx.Deps,
	reports ReportRunner,
) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("%w: session store is required", contractx.ErrValidation)
	}
	if users == nil {
		return nil, fmt.Errorf("%w: authenticator is required", contractx.ErrValidation)
	}
	if patient == nil || doctor == nil {
		return nil, fmt.Errorf("%w: both persona assistants are required", contractx.ErrValidation)
	}
	return &Service{
		sessions: sessions,
		users:    users,
		patient:  patient,
		doctor:   doctor,
		deps:     deps,
		reports:  reports,
	}, nil
}

// Login authenticates and starts a fresh conversation for the identity.
func (s *Service) Login(ctx context.Context, loginID, password, typ string) (*contractx.User, error) {
	user, err := s.users.Authenticate(ctx, loginID, password, typ)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Reset(ctx, user.LoginID); err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}
	return user, nil
}

// Chat runs one patient turn.
func (s *Service) Chat(ctx context.Context, identity, message string) (string, error) {
	return s.chat(ctx, contractx.PersonaPatient, s.patient, identity, message)
}

// ChatAsDoctor runs one doctor turn. The identity given here is the one the
// query tool is scoped to; it comes from the authenticated session, not
// from message text.
func (s *Service) ChatAsDoctor(ctx context.Context, identity, message string) (string, error) {
	return s.chat(ctx, contractx.PersonaDoctor, s.doctor, identity, message)
}

func (s *Service) History(ctx context.Context, identity string) ([]contractx.Message, error) {
	return s.sessions.History(ctx, identity)
}

func (s *Service) GenerateReport(ctx context.Context, identity string, notify bool) (contractx.ReportResult, error) {
	if s.reports == nil {
		return contractx.ReportResult{}, fmt.Errorf("%w: reporting is not configured", contractx.ErrValidation)
	}
	return s.reports.GenerateAndNotify(ctx, identity, notify)
}

func (s *Service) chat(ctx context.Context, persona contractx.Persona, asst *assistantx.Assistant, identity, message string) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", fmt.Errorf("%w: identity is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	}

	unlock := s.lockIdentity(identity)
	defer unlock()

	if err := s.sessions.Append(ctx, identity, contractx.Message{
		Role:    contractx.RoleUser,
		Content: message,
	}); err != nil {
		return "", fmt.Errorf("append user message: %w", err)
	}

	history, err := s.sessions.History(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	exec := toolx.NewExecutor(persona, identity, s.deps)
	reply, err := asst.Run(ctx, history, exec)
	if err != nil {
		// Engine failures collapse to the apology; any external effect a
		// tool already had stays in place.
		log.Error().Str("persona", string(persona)).Str("identity", identity).Err(err).Msg("agent turn failed")
		reply = assistantx.FallbackReply
	}

	if err := s.sessions.Append(ctx, identity, contractx.Message{
		Role:    contractx.RoleAssistant,
		Content: reply,
	}); err != nil {
		return "", fmt.Errorf("append assistant message: %w", err)
	}
	return reply, nil
}

func (s *Service) lockIdentity(identity string) func() {
	muAny, _ := s.turns.LoadOrStore(identity, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
