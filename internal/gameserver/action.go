package gameserver

import "github.com/pmourey/fungame/internal/game/session"

// ActionRequest is the wire shape of one submitted action. Unused fields are
// ignored for the action types that do not need them.
type ActionRequest struct {
	ActorID  string `json:"actorId"`
	Type     string `json:"type"`
	X        *int   `json:"x,omitempty"`
	Y        *int   `json:"y,omitempty"`
	TargetID string `json:"targetId,omitempty"`
}

// DecodeAction maps a wire request onto a typed action. "revive" is accepted
// as an alias of "respawn" for older clients.
//
// Postcondition: Returns session.ErrUnknownAction for any unrecognised type.
func DecodeAction(req ActionRequest) (session.Action, error) {
	switch req.Type {
	case "move":
		return session.Move{X: req.X, Y: req.Y}, nil
	case "attack":
		return session.Attack{TargetID: req.TargetID}, nil
	case "respawn", "revive":
		return session.Respawn{}, nil
	case "end_turn":
		return session.EndTurn{}, nil
	default:
		return nil, session.ErrUnknownAction
	}
}
