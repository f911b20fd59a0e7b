package gameserver

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/session"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing frames rather than stalling gameplay.
const subscriberBuffer = 16

// Hub fans session state changes out to event-stream subscribers. Publishing
// never blocks: slow consumers drop frames.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan []byte]struct{} // session id -> subscriber set
	logger *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[chan []byte]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for one session's state frames.
//
// Postcondition: cancel must be called exactly once; afterwards the channel
// is closed and receives nothing further.
func (h *Hub) Subscribe(sessionID string) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan []byte]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[sessionID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// stateFrame is the payload published on every successful mutation.
// ActionResult is absent for mutations that were not player actions.
type stateFrame struct {
	ActionResult *session.Result   `json:"action_result,omitempty"`
	State        *session.Snapshot `json:"state"`
}

// OnStateChanged is the session broadcast hook. It runs outside any session
// lock, so marshalling and fan-out never stall gameplay.
func (h *Hub) OnStateChanged(sessionID string, res *session.Result, snap *session.Snapshot) {
	payload, err := json.Marshal(stateFrame{ActionResult: res, State: snap})
	if err != nil {
		h.logger.Error("state frame marshal failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}
	h.publish(sessionID, payload)
}

func (h *Hub) publish(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- payload:
		default:
			h.logger.Debug("dropping frame for slow subscriber",
				zap.String("session_id", sessionID),
			)
		}
	}
}
