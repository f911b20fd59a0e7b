// Package bot runs autonomous agents inside game sessions. A bot joins a
// session like any player, then thinks on a fixed cadence: it reconciles the
// turn queue, revives itself when dead, and on its own turn attacks an
// adjacent target or wanders one cardinal step.
package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/entity"
	"github.com/pmourey/fungame/internal/game/session"
)

// Config carries the agent knobs.
type Config struct {
	// Name is the display name the agent joins under.
	Name string
	// ThinkInterval is the pause between think iterations.
	ThinkInterval time.Duration
	// StopTimeout bounds how long Stop waits for the loop to drain.
	StopTimeout time.Duration
}

// DefaultConfig returns the stock agent tuning.
func DefaultConfig() Config {
	return Config{
		Name:          "Computer",
		ThinkInterval: 2 * time.Second,
		StopTimeout:   5 * time.Second,
	}
}

// Bot is one autonomous agent bound to one session. It submits actions
// through the same entry point as human clients and holds no privileged
// access to session internals.
type Bot struct {
	sess   *session.Session
	selfID string
	cfg    Config
	roller *dice.Roller
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// Attach joins a new agent entity to s and starts its think loop. When the
// session is still waiting the agent starts it; when it is already running
// the agent splices itself into the live turn order.
//
// Postcondition: on success the returned Bot's loop is running and must be
// released with Stop.
func Attach(s *session.Session, cfg Config, roller *dice.Roller, logger *zap.Logger) (*Bot, error) {
	e, err := s.AddEntity(cfg.Name)
	if err != nil {
		return nil, err
	}
	s.SetConnected(e.ID, true)

	if s.Status() == session.StatusWaiting {
		if err := s.Start(); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.InsertInitiative(e.ID); err != nil {
			return nil, err
		}
	}

	b := &Bot{
		sess:   s,
		selfID: e.ID,
		cfg:    cfg,
		roller: roller,
		logger: logger.With(
			zap.String("session_id", s.ID()),
			zap.String("bot_id", e.ID),
		),
		done: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.run(ctx)
	b.logger.Info("bot attached", zap.String("name", e.Name))
	return b, nil
}

// EntityID returns the id of the agent's entity.
func (b *Bot) EntityID() string { return b.selfID }

// Stop cancels the think loop and waits for it to drain, bounded by
// StopTimeout.
func (b *Bot) Stop() {
	b.cancel()
	select {
	case <-b.done:
	case <-time.After(b.cfg.StopTimeout):
		b.logger.Warn("bot loop did not drain before timeout")
	}
}

func (b *Bot) run(ctx context.Context) {
	defer close(b.done)
	// Detaching, for whatever reason, marks the agent as no longer present.
	defer b.sess.SetConnected(b.selfID, false)
	ticker := time.NewTicker(b.cfg.ThinkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopped")
			return
		case <-ticker.C:
			if b.think() {
				b.logger.Info("bot entity gone, loop exiting")
				return
			}
		}
	}
}

// think is one loop iteration. A panic in one iteration is contained so a
// single bad tick never kills the agent. Returns true when the agent's
// entity no longer exists and the loop should terminate.
func (b *Bot) think() (gone bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bot think panicked", zap.Any("panic", r))
		}
	}()

	b.sess.Sanitize(b.selfID)
	snap := b.sess.Snapshot()
	me := snap.Entity(b.selfID)
	if me == nil {
		return true
	}

	if me.HP <= 0 {
		b.submit(session.Respawn{})
		return false
	}
	if snap.CurrentTurn != b.selfID {
		return false
	}

	act := b.choose(snap, me)
	if _, err := b.sess.ProcessAction(b.selfID, act); err != nil {
		b.logger.Debug("bot action rejected, ending turn",
			zap.String("code", session.ErrorCode(err)),
		)
		b.submit(session.EndTurn{})
	}
	return false
}

func (b *Bot) submit(a session.Action) {
	if _, err := b.sess.ProcessAction(b.selfID, a); err != nil {
		b.logger.Debug("bot action rejected",
			zap.String("code", session.ErrorCode(err)),
		)
	}
}

// choose picks the agent's action for this turn: attack a living target on a
// cardinally adjacent cell (uniform pick when several qualify), otherwise
// step onto a random free cardinal neighbour, otherwise pass.
func (b *Bot) choose(snap *session.Snapshot, me *entity.Entity) session.Action {
	src := b.roller.Source()

	var candidates []string
	for _, e := range snap.Entities() {
		if e.ID == b.selfID || e.HP <= 0 {
			continue
		}
		// Diagonals are out of reach; only the four cardinal neighbours.
		if abs(e.Position.X-me.Position.X)+abs(e.Position.Y-me.Position.Y) == 1 {
			candidates = append(candidates, e.ID)
		}
	}
	if len(candidates) > 0 {
		return session.Attack{TargetID: candidates[src.Intn(len(candidates))]}
	}

	dirs := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for i := len(dirs) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	for _, d := range dirs {
		nx, ny := me.Position.X+d[0], me.Position.Y+d[1]
		if !inBounds(snap, nx, ny) {
			continue
		}
		if occupied(snap, nx, ny) {
			continue
		}
		return session.Move{X: &nx, Y: &ny}
	}
	return session.EndTurn{}
}

func inBounds(snap *session.Snapshot, x, y int) bool {
	if len(snap.Grid) == 0 {
		return x >= 0 && y >= 0
	}
	return y >= 0 && y < len(snap.Grid) && x >= 0 && x < len(snap.Grid[0])
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func occupied(snap *session.Snapshot, x, y int) bool {
	for _, e := range snap.Entities() {
		if e.HP <= 0 {
			continue
		}
		if e.Position.X == x && e.Position.Y == y {
			return true
		}
	}
	return false
}
