package bot

import (
	"sync"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/session"
)

// Supervisor tracks at most one agent per session and owns their lifecycles.
type Supervisor struct {
	mu   sync.Mutex
	bots map[string]*Bot

	cfg    Config
	roller *dice.Roller
	logger *zap.Logger
}

// NewSupervisor creates an empty Supervisor.
func NewSupervisor(cfg Config, roller *dice.Roller, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		bots:   make(map[string]*Bot),
		cfg:    cfg,
		roller: roller,
		logger: logger,
	}
}

// Ensure attaches an agent to s unless one is already running there.
//
// Postcondition: Returns the session's agent, existing or fresh.
func (sv *Supervisor) Ensure(s *session.Session) (*Bot, error) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if b, ok := sv.bots[s.ID()]; ok {
		return b, nil
	}
	b, err := Attach(s, sv.cfg, sv.roller, sv.logger)
	if err != nil {
		return nil, err
	}
	sv.bots[s.ID()] = b
	return b, nil
}

// HasBot reports whether an agent is attached to the session.
func (sv *Supervisor) HasBot(sessionID string) bool {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	_, ok := sv.bots[sessionID]
	return ok
}

// Stop halts and forgets the session's agent, if any.
func (sv *Supervisor) Stop(sessionID string) {
	sv.mu.Lock()
	b, ok := sv.bots[sessionID]
	delete(sv.bots, sessionID)
	sv.mu.Unlock()
	if ok {
		b.Stop()
	}
}

// StopAll halts every agent. Used on shutdown.
func (sv *Supervisor) StopAll() {
	sv.mu.Lock()
	all := make([]*Bot, 0, len(sv.bots))
	for _, b := range sv.bots {
		all = append(all, b)
	}
	sv.bots = make(map[string]*Bot)
	sv.mu.Unlock()
	for _, b := range all {
		b.Stop()
	}
}
