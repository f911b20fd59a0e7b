package session

import (
	"time"

	"github.com/pmourey/fungame/internal/game/entity"
)

// Event kinds appended to the session log. The log records only successful
// state transitions; rejected actions leave no trace.
const (
	EventGameStarted    = "game_started"
	EventInitiativeRoll = "initiative_roll"
	EventInitiativeAdd  = "initiative_add"
	EventAdvanceTurn    = "advance_turn"
	EventMove           = "move"
	EventAttack         = "attack"
	EventDeath          = "death"
	EventKill           = "kill"
	EventRespawn        = "respawn"
)

// Event is one append-only record in a session's log. Only the fields
// relevant to the event kind are populated.
type Event struct {
	Kind        string           `json:"event"`
	Actor       string           `json:"actor,omitempty"`
	ActorName   string           `json:"actor_name,omitempty"`
	Target      string           `json:"target,omitempty"`
	TargetName  string           `json:"target_name,omitempty"`
	Pos         *entity.Position `json:"pos,omitempty"`
	Dist        float64          `json:"dist,omitempty"`
	Roll        int              `json:"roll,omitempty"`
	Hit         bool             `json:"hit,omitempty"`
	Damage      int              `json:"dmg,omitempty"`
	Current     string           `json:"current,omitempty"`
	CurrentName string           `json:"current_name,omitempty"`
	QueueIDs    []string         `json:"queue_ids,omitempty"`
	QueueNames  []string         `json:"queue_names,omitempty"`
	Time        time.Time        `json:"time"`
}
