// Package session owns the per-game state: entities, grid, turn order, and
// the append-only event log. It exposes the single action-processing entry
// point shared by human clients and autonomous agents, plus the
// concurrency-safe Registry directory of all sessions.
package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/entity"
	"github.com/pmourey/fungame/internal/game/grid"
	"github.com/pmourey/fungame/internal/game/turn"
)

// Status is the session lifecycle tag.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusRunning  Status = "running"
	// StatusFinished is reserved for clients; no transition sets it yet.
	StatusFinished Status = "finished"
)

// BroadcastFunc is the outbound hook invoked after every successful
// state-mutating operation. result is nil for mutations that are not player
// actions (start, join, late initiative insertion). The core does not know
// how many subscribers exist or whether delivery succeeds.
type BroadcastFunc func(sessionID string, result *Result, snap *Snapshot)

// Session is one running game instance. All mutable state is guarded by a
// single per-session mutex, so concurrent actions on the same session are
// linearised while distinct sessions never contend.
//
// Invariants:
//   - entity count never exceeds capacity;
//   - no two living entities occupy the same grid cell;
//   - order.Current, when non-empty, is an element of order.Queue.
type Session struct {
	id        string
	name      string
	capacity  int
	createdAt time.Time

	mu       sync.Mutex
	players  map[string]*entity.Entity
	monsters map[string]*entity.Entity
	joined   []string // entity ids in join order; drives iteration and UI ordering
	grid     *grid.Grid
	order    turn.Order
	status   Status
	log      []Event

	gridWidth  int
	gridHeight int
	attackDie  dice.Expression
	damageDie  dice.Expression

	roller    *dice.Roller
	broadcast BroadcastFunc
	logger    *zap.Logger
}

func newSession(name string, capacity int, cfg Config, roller *dice.Roller, broadcast BroadcastFunc, logger *zap.Logger) *Session {
	return &Session{
		id:         uuid.NewString(),
		name:       name,
		capacity:   capacity,
		createdAt:  time.Now(),
		players:    make(map[string]*entity.Entity),
		monsters:   make(map[string]*entity.Entity),
		status:     StatusWaiting,
		gridWidth:  cfg.GridWidth,
		gridHeight: cfg.GridHeight,
		attackDie:  cfg.attackDie,
		damageDie:  cfg.damageDie,
		roller:     roller,
		broadcast:  broadcast,
		logger:     logger,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Name returns the session's display name.
func (s *Session) Name() string { return s.name }

// Capacity returns the maximum combined entity count.
func (s *Session) Capacity() int { return s.capacity }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Status returns the current lifecycle tag.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// AddEntity creates a player entity, assigns an unused palette color, places
// it on a spawn cell, and registers it. An empty displayName draws a random
// friendly name.
//
// Postcondition: Returns the new entity, or ErrSessionFull at capacity.
func (s *Session) AddEntity(displayName string) (*entity.Entity, error) {
	s.mu.Lock()
	if len(s.players)+len(s.monsters) >= s.capacity {
		s.mu.Unlock()
		return nil, ErrSessionFull
	}
	if displayName == "" {
		displayName = entity.RandomName(s.roller.Source())
	}
	e := entity.NewPlayer(displayName, s.pickColorLocked())
	s.players[e.ID] = e
	s.joined = append(s.joined, e.ID)
	s.placeLocked(e)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("entity joined",
		zap.String("session_id", s.id),
		zap.String("entity_id", e.ID),
		zap.String("name", e.Name),
	)
	s.notify(nil, snap)
	return e, nil
}

// AddMonster creates a monster entity from tmpl and registers it like any
// other combatant.
//
// Precondition: tmpl must be validated.
// Postcondition: Returns the new entity, or ErrSessionFull at capacity.
func (s *Session) AddMonster(tmpl *entity.Template) (*entity.Entity, error) {
	s.mu.Lock()
	if len(s.players)+len(s.monsters) >= s.capacity {
		s.mu.Unlock()
		return nil, ErrSessionFull
	}
	color := tmpl.Color
	if color == 0 {
		color = s.pickColorLocked()
	}
	e := entity.NewMonster(tmpl, color)
	s.monsters[e.ID] = e
	s.joined = append(s.joined, e.ID)
	s.placeLocked(e)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("monster joined",
		zap.String("session_id", s.id),
		zap.String("entity_id", e.ID),
		zap.String("template_id", tmpl.ID),
	)
	s.notify(nil, snap)
	return e, nil
}

// SetConnected flips the client-presence flag for an entity. Presence never
// affects turn legality.
//
// Postcondition: Returns false when the entity is unknown.
func (s *Session) SetConnected(entityID string, connected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(entityID)
	if e == nil {
		return false
	}
	e.Connected = connected
	return true
}

// Start rolls initiative over all current entities, generates the floor grid,
// and flips the session to running.
//
// Precondition: the session must be waiting; callers check Status first.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.status != StatusWaiting {
		s.mu.Unlock()
		return fmt.Errorf("session %q already started", s.id)
	}
	s.rollInitiativeLocked()
	s.status = StatusRunning
	s.grid = grid.NewFloor(s.gridWidth, s.gridHeight)
	s.appendEventLocked(Event{Kind: EventGameStarted})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("session_id", s.id),
		zap.Strings("turn_queue", snap.TurnQueue),
	)
	s.notify(nil, snap)
	return nil
}

// InsertInitiative rolls a fresh initiative value for entityID and splices it
// into a running turn order, preserving whose turn it is. Used by agents that
// join after Start.
//
// Postcondition: Returns the rolled value, or ErrActorNotFound.
func (s *Session) InsertInitiative(entityID string) (int, error) {
	s.mu.Lock()
	e := s.findLocked(entityID)
	if e == nil {
		s.mu.Unlock()
		return 0, ErrActorNotFound
	}
	roll := s.roller.Source().Intn(turn.InitiativeSides) + 1
	e.Initiative = roll
	s.order.Insert(s.entitiesLocked())
	s.appendEventLocked(Event{
		Kind:     EventInitiativeAdd,
		Actor:    entityID,
		Roll:     roll,
		QueueIDs: append([]string(nil), s.order.Queue...),
	})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(nil, snap)
	return roll, nil
}

// ProcessAction is the single state-transition entry point, shared by the
// transport layer and autonomous agents. Concurrent calls on the same
// session behave as if serialised in some order.
//
// Postcondition: on success the session log has grown, the broadcast hook has
// fired with the result and a fresh snapshot; on error no state changed and
// nothing was broadcast.
func (s *Session) ProcessAction(actorID string, a Action) (*Result, error) {
	s.mu.Lock()
	res, err := s.processLocked(actorID, a)
	var snap *Snapshot
	if err == nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("action rejected",
			zap.String("session_id", s.id),
			zap.String("actor_id", actorID),
			zap.String("code", ErrorCode(err)),
		)
		return nil, err
	}
	s.notify(res, snap)
	return res, nil
}

func (s *Session) processLocked(actorID string, a Action) (*Result, error) {
	actor := s.findLocked(actorID)
	if actor == nil {
		return nil, ErrActorNotFound
	}

	// Respawn is exempt from both gates; a dead entity may always revive and
	// revival never depends on whose turn it is.
	if _, isRespawn := a.(Respawn); !isRespawn {
		if s.order.Current != "" || len(s.order.Queue) > 0 {
			if actor.ID != s.order.Current {
				return nil, ErrNotYourTurn
			}
		}
		if actor.IsDead() {
			return nil, ErrActorDead
		}
	}

	switch act := a.(type) {
	case Move:
		return s.resolveMoveLocked(actor, act)
	case Attack:
		return s.resolveAttackLocked(actor, act)
	case Respawn:
		return s.resolveRespawnLocked(actor)
	case EndTurn:
		next := s.advanceLocked()
		return &Result{Action: "end_turn", Next: next}, nil
	default:
		return nil, ErrUnknownAction
	}
}

func (s *Session) resolveMoveLocked(actor *entity.Entity, act Move) (*Result, error) {
	x, y := actor.Position.X, actor.Position.Y
	if act.X != nil {
		x = *act.X
	}
	if act.Y != nil {
		y = *act.Y
	}
	if s.occupiedByLivingLocked(x, y, actor.ID) {
		return nil, ErrOccupied
	}
	actor.Position = entity.Position{X: x, Y: y}
	pos := actor.Position
	s.appendEventLocked(Event{
		Kind:      EventMove,
		Actor:     actor.ID,
		ActorName: actor.Name,
		Pos:       &pos,
	})
	// Moving always consumes the turn.
	next := s.advanceLocked()
	return &Result{Action: "move", Pos: &pos, Next: next}, nil
}

func (s *Session) resolveAttackLocked(actor *entity.Entity, act Attack) (*Result, error) {
	target := s.findLocked(act.TargetID)
	if target == nil {
		return nil, ErrTargetNotFound
	}
	if target.IsDead() {
		return nil, ErrTargetDead
	}

	// Distance is recorded for telemetry only; attacks have no range limit.
	dx := float64(actor.Position.X - target.Position.X)
	dy := float64(actor.Position.Y - target.Position.Y)
	dist := math.Sqrt(dx*dx + dy*dy)

	roll := s.roller.Roll(s.attackDie).Total()
	hit := roll >= target.AC
	dmg := 0
	if hit {
		dmg = s.roller.Roll(s.damageDie).Total()
		target.ApplyDamage(dmg)
	}
	s.appendEventLocked(Event{
		Kind:       EventAttack,
		Actor:      actor.ID,
		ActorName:  actor.Name,
		Target:     target.ID,
		TargetName: target.Name,
		Dist:       dist,
		Roll:       roll,
		Hit:        hit,
		Damage:     dmg,
	})

	died := hit && target.IsDead()
	if died {
		s.removeFromOrderLocked(target.ID)
		s.appendEventLocked(Event{
			Kind:       EventDeath,
			Target:     target.ID,
			TargetName: target.Name,
		})
		// Kill score only counts between player-originated entities.
		if actor.Kind == entity.KindPlayer && target.Kind == entity.KindPlayer {
			actor.Score++
			s.appendEventLocked(Event{
				Kind:       EventKill,
				Actor:      actor.ID,
				ActorName:  actor.Name,
				Target:     target.ID,
				TargetName: target.Name,
			})
		}
	}

	// Attacking always consumes the turn.
	next := s.advanceLocked()
	return &Result{
		Action: "attack",
		Target: target.ID,
		Roll:   roll,
		Hit:    hit,
		Damage: dmg,
		Died:   died,
		Next:   next,
	}, nil
}

func (s *Session) resolveRespawnLocked(actor *entity.Entity) (*Result, error) {
	if !actor.IsDead() {
		return nil, ErrNotDead
	}
	actor.Revive()
	s.placeLocked(actor)
	pos := actor.Position
	s.appendEventLocked(Event{
		Kind:      EventRespawn,
		Actor:     actor.ID,
		ActorName: actor.Name,
		Pos:       &pos,
	})
	// Reviving re-enters the rotation but never consumes anyone's turn.
	s.order.Append(actor.ID)
	return &Result{Action: "respawn", Pos: &pos}, nil
}

// Sanitize reconciles the turn queue with entity liveness on behalf of the
// agent identified by selfID: dead ids are dropped, a living-but-missing self
// is re-appended, a dangling current pointer is reset to the head, and a sole
// living survivor is promoted to current so it is never stuck waiting on
// nobody. This compensates for Advance rotating blindly over dead entries.
func (s *Session) Sanitize(selfID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := make(map[string]bool)
	for _, e := range s.entitiesLocked() {
		if !e.IsDead() {
			alive[e.ID] = true
		}
	}

	filtered := make([]string, 0, len(s.order.Queue))
	for _, id := range s.order.Queue {
		if alive[id] {
			filtered = append(filtered, id)
		}
	}
	if alive[selfID] && !contains(filtered, selfID) {
		filtered = append(filtered, selfID)
	}
	s.order.Queue = filtered

	if len(s.order.Queue) == 0 {
		s.order.Current = ""
	} else if !s.order.Contains(s.order.Current) {
		s.order.Current = s.order.Queue[0]
	}

	// Sole living survivor: force the agent onto the queue and give it the
	// turn so the session cannot deadlock waiting on the dead.
	if alive[selfID] && len(alive) == 1 {
		if !s.order.Contains(selfID) {
			s.order.Queue = append(s.order.Queue, selfID)
		}
		s.order.Current = selfID
	}
}

// --- internal helpers; callers hold s.mu ---

func (s *Session) rollInitiativeLocked() {
	ents := s.entitiesLocked()
	s.order.RollInitiative(ents, s.roller.Source())
	names := make([]string, len(s.order.Queue))
	for i, id := range s.order.Queue {
		names[i] = s.nameForLocked(id)
	}
	s.appendEventLocked(Event{
		Kind:       EventInitiativeRoll,
		QueueIDs:   append([]string(nil), s.order.Queue...),
		QueueNames: names,
	})
}

// advanceLocked rotates the turn order and logs the new holder. Returns the
// new current id, or "" when the queue is empty.
func (s *Session) advanceLocked() string {
	next, ok := s.order.Advance()
	if !ok {
		return ""
	}
	s.appendEventLocked(Event{
		Kind:        EventAdvanceTurn,
		Current:     next,
		CurrentName: s.nameForLocked(next),
	})
	return next
}

// removeFromOrderLocked drops id from the rotation, advancing (with a log
// record) when id held the current turn.
func (s *Session) removeFromOrderLocked(id string) {
	if !s.order.Contains(id) {
		return
	}
	wasCurrent := s.order.Current == id
	if wasCurrent {
		// Let the session-level advance run so the rotation is logged.
		filtered := make([]string, 0, len(s.order.Queue))
		for _, qid := range s.order.Queue {
			if qid != id {
				filtered = append(filtered, qid)
			}
		}
		s.order.Queue = filtered
		s.advanceLocked()
		return
	}
	s.order.Remove(id)
}

// entitiesLocked returns all entities in join order.
func (s *Session) entitiesLocked() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(s.joined))
	for _, id := range s.joined {
		if e := s.findLocked(id); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (s *Session) findLocked(id string) *entity.Entity {
	if e, ok := s.players[id]; ok {
		return e
	}
	if e, ok := s.monsters[id]; ok {
		return e
	}
	return nil
}

func (s *Session) nameForLocked(id string) string {
	if e := s.findLocked(id); e != nil {
		return e.Name
	}
	return id
}

// occupiedByLivingLocked reports whether a living entity other than exceptID
// occupies (x, y). Dead entities never block a cell.
func (s *Session) occupiedByLivingLocked(x, y int, exceptID string) bool {
	for _, e := range s.entitiesLocked() {
		if e.ID == exceptID || e.IsDead() {
			continue
		}
		if e.Position.X == x && e.Position.Y == y {
			return true
		}
	}
	return false
}

// placeLocked puts e on a spawn cell: the four corners in fixed order, then a
// row-major scan when a grid exists, then (0, 0) as the last resort. Used on
// join and on revival.
func (s *Session) placeLocked(e *entity.Entity) {
	for _, c := range grid.Corners(s.gridWidth, s.gridHeight) {
		if !s.occupiedByLivingLocked(c[0], c[1], e.ID) {
			e.Position = entity.Position{X: c[0], Y: c[1]}
			return
		}
	}
	if s.grid != nil {
		for y := 0; y < s.grid.Height; y++ {
			for x := 0; x < s.grid.Width; x++ {
				if !s.occupiedByLivingLocked(x, y, e.ID) {
					e.Position = entity.Position{X: x, Y: y}
					return
				}
			}
		}
	}
	e.Position = entity.Position{}
}

func (s *Session) pickColorLocked() int {
	used := make(map[int]bool, len(s.joined))
	for _, e := range s.entitiesLocked() {
		used[e.Color] = true
	}
	return entity.PickColor(used, s.roller.Source())
}

func (s *Session) appendEventLocked(ev Event) {
	ev.Time = time.Now()
	s.log = append(s.log, ev)
}

// notify fires the broadcast hook outside the session lock.
func (s *Session) notify(res *Result, snap *Snapshot) {
	if s.broadcast != nil {
		s.broadcast(s.id, res, snap)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
