package session

import "github.com/pmourey/fungame/internal/game/entity"

// Action is the closed set of player commands accepted by ProcessAction.
// Payloads are decoded once at the transport boundary into one of these
// variants; the resolver never sees raw client input.
type Action interface {
	isAction()
}

// Move relocates the actor to a target cell. A nil coordinate defaults to the
// actor's current value on that axis.
type Move struct {
	X *int
	Y *int
}

// Attack rolls against the target's armor value and applies damage on a hit.
type Attack struct {
	TargetID string
}

// Respawn revives a dead actor at a spawn cell. Exempt from the turn-order
// and liveness gates.
type Respawn struct{}

// EndTurn passes the turn to the next entity in the rotation.
type EndTurn struct{}

func (Move) isAction()    {}
func (Attack) isAction()  {}
func (Respawn) isAction() {}
func (EndTurn) isAction() {}

// Result reports the outcome of a successful action. Fields not meaningful
// for the action kind are omitted from the wire form.
type Result struct {
	Action string           `json:"action"`
	Pos    *entity.Position `json:"pos,omitempty"`
	Target string           `json:"target,omitempty"`
	Roll   int              `json:"roll,omitempty"`
	Hit    bool             `json:"hit,omitempty"`
	Damage int              `json:"dmg,omitempty"`
	Died   bool             `json:"died,omitempty"`
	// Next is the entity holding the turn after this action, when the action
	// itself advanced the rotation. Empty for respawn, which never does.
	Next string `json:"next,omitempty"`
}
