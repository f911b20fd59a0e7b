// Package gameserver is the glue between transports and the game core: it
// owns the session registry facade, decodes wire actions, fans state out to
// subscribers, and keeps the autonomous-agent supervisor fed.
package gameserver

import (
	"errors"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/bot"
	"github.com/pmourey/fungame/internal/game/entity"
	"github.com/pmourey/fungame/internal/game/session"
)

// ErrTemplateNotFound is returned when a monster spawn names an unknown
// template id.
var ErrTemplateNotFound = errors.New("template not found")

// Service is the transport-independent command surface of the game server.
type Service struct {
	registry  *session.Registry
	bots      *bot.Supervisor
	templates map[string]*entity.Template
	autoBot   bool
	logger    *zap.Logger
}

// NewService wires the command surface. templates may be empty when no
// monster catalogue is configured; bots may be nil to disable agents
// entirely.
func NewService(registry *session.Registry, bots *bot.Supervisor, templates []*entity.Template, autoBot bool, logger *zap.Logger) *Service {
	byID := make(map[string]*entity.Template, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}
	return &Service{
		registry:  registry,
		bots:      bots,
		templates: byID,
		autoBot:   autoBot,
		logger:    logger,
	}
}

// CreateSession allocates a new waiting session.
func (s *Service) CreateSession(name string, capacity int) session.Summary {
	sess := s.registry.Create(name, capacity)
	return session.Summary{ID: sess.ID(), Name: sess.Name(), Status: sess.Status()}
}

// ListSessions returns all sessions in creation order.
func (s *Service) ListSessions() []session.Summary {
	return s.registry.List()
}

// Join adds a player to the session and, when auto-agents are enabled and the
// session has room, makes sure an agent opponent is present. Attaching the
// agent also starts a waiting session.
//
// Postcondition: the returned entity is live; agent attachment failures are
// logged but never fail the join.
func (s *Service) Join(sessionID, displayName string) (*entity.Entity, error) {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	e, err := sess.AddEntity(displayName)
	if err != nil {
		return nil, err
	}
	sess.SetConnected(e.ID, true)

	if s.autoBot && s.bots != nil && !s.bots.HasBot(sessionID) {
		if _, err := s.bots.Ensure(sess); err != nil {
			// A full session simply gets no agent.
			s.logger.Warn("agent attach skipped",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}
	return e, nil
}

// Leave flips the entity's presence flag off. The entity stays in the game;
// disconnection never affects turn legality.
func (s *Service) Leave(sessionID, entityID string) error {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	if !sess.SetConnected(entityID, false) {
		return session.ErrActorNotFound
	}
	return nil
}

// StartSession rolls initiative and opens combat. Sessions with an
// auto-agent start on attach instead; this is the manual path.
func (s *Service) StartSession(sessionID string) error {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return session.ErrSessionNotFound
	}
	return sess.Start()
}

// Snapshot returns the full visible state of one session.
func (s *Service) Snapshot(sessionID string) (*session.Snapshot, error) {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

// SubmitAction decodes and applies one wire action against a session.
func (s *Service) SubmitAction(sessionID string, req ActionRequest) (*session.Result, error) {
	sess, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	act, err := DecodeAction(req)
	if err != nil {
		return nil, err
	}
	return sess.ProcessAction(req.ActorID, act)
}

// SpawnMonster stamps a configured template into the session.
func (s *Service) SpawnMonster(sessionID, templateID string) (*entity.Entity, error) {
	tmpl, ok := s.templates[templateID]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return s.registry.AddMonster(sessionID, tmpl)
}

// Templates returns the configured monster catalogue ids.
func (s *Service) Templates() []string {
	out := make([]string, 0, len(s.templates))
	for id := range s.templates {
		out = append(out, id)
	}
	return out
}

// Shutdown stops all agents. Called once on process exit.
func (s *Service) Shutdown() {
	if s.bots != nil {
		s.bots.StopAll()
	}
}
