package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/entity"
)

// Config carries the game-rule knobs stamped onto every new session.
type Config struct {
	GridWidth  int
	GridHeight int

	attackDie dice.Expression
	damageDie dice.Expression
}

// NewConfig builds a session Config from dice expression strings.
//
// Precondition: attackExpr and damageExpr must be valid dice expressions.
func NewConfig(gridWidth, gridHeight int, attackExpr, damageExpr string) (Config, error) {
	atk, err := dice.Parse(attackExpr)
	if err != nil {
		return Config{}, err
	}
	dmg, err := dice.Parse(damageExpr)
	if err != nil {
		return Config{}, err
	}
	return Config{
		GridWidth:  gridWidth,
		GridHeight: gridHeight,
		attackDie:  atk,
		damageDie:  dmg,
	}, nil
}

// DefaultConfig returns the fixed 16×12 grid with d20 attack and d6 damage
// rolls.
func DefaultConfig() Config {
	cfg, err := NewConfig(16, 12, "1d20", "1d6")
	if err != nil {
		panic("session: default config must parse: " + err.Error())
	}
	return cfg
}

// Registry is the concurrency-safe directory of sessions. Its mutex guards
// only the directory itself and is never held while a session mutates its
// internal turn or combat state, so unrelated sessions never serialise behind
// one lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string // session ids in creation order, for stable listings

	cfg       Config
	roller    *dice.Roller
	broadcast BroadcastFunc
	logger    *zap.Logger
}

// NewRegistry creates an empty Registry. broadcast may be nil when no
// transport layer is attached (tests).
//
// Precondition: roller and logger must be non-nil.
func NewRegistry(cfg Config, roller *dice.Roller, broadcast BroadcastFunc, logger *zap.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		roller:    roller,
		broadcast: broadcast,
		logger:    logger,
	}
}

// Create allocates a new waiting session with zero entities. Always succeeds.
func (r *Registry) Create(name string, capacity int) *Session {
	s := newSession(name, capacity, r.cfg, r.roller, r.broadcast, r.logger)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.order = append(r.order, s.id)
	r.mu.Unlock()

	r.logger.Info("session created",
		zap.String("session_id", s.id),
		zap.String("name", name),
		zap.Int("capacity", capacity),
	)
	return s
}

// List returns summaries of all sessions in creation order.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		if s, ok := r.sessions[id]; ok {
			all = append(all, s)
		}
	}
	r.mu.RUnlock()

	// Statuses are read outside the directory lock; a per-session lock is
	// taken briefly for each row.
	out := make([]Summary, 0, len(all))
	for _, s := range all {
		out = append(out, Summary{ID: s.id, Name: s.name, Status: s.Status()})
	}
	return out
}

// Get returns the session with the given id.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// AddEntity adds a player entity to the identified session. The directory
// lock is released before the session mutates, so gameplay on other sessions
// is never blocked by a join.
func (r *Registry) AddEntity(sessionID, displayName string) (*entity.Entity, error) {
	s, ok := r.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.AddEntity(displayName)
}

// AddMonster adds a monster entity stamped from tmpl to the identified
// session.
func (r *Registry) AddMonster(sessionID string, tmpl *entity.Template) (*entity.Entity, error) {
	s, ok := r.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.AddMonster(tmpl)
}
