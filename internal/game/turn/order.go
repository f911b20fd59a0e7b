// Package turn implements initiative rolling and round-robin turn rotation
// for one session.
package turn

import (
	"sort"

	"github.com/pmourey/fungame/internal/game/dice"
	"github.com/pmourey/fungame/internal/game/entity"
)

// Order is the rotation of entity ids determining whose action is legal.
// It is a plain value type; the owning session serialises access.
//
// Invariant: Queue contains no duplicate ids; Current, when non-empty, is an
// element of Queue.
type Order struct {
	Queue   []string
	Current string
}

// InitiativeSides is the die used for every initiative roll.
const InitiativeSides = 20

// RollInitiative draws a d20 for every entity, stores it on the entity, and
// rebuilds the queue ordered by initiative descending. Ties are broken by the
// entity's position in the input slice (stable, not re-randomised). Current
// becomes the queue head, or empty when there are no entities.
//
// Precondition: src must be non-nil; entities is the session's combatants in
// insertion order.
func (o *Order) RollInitiative(entities []*entity.Entity, src dice.Source) {
	for _, e := range entities {
		e.Initiative = src.Intn(InitiativeSides) + 1
	}
	o.rebuild(entities)
}

// Insert rebuilds the queue from entities using their current Initiative
// values, then rotates the result so that whoever held the turn before the
// insertion still holds it. Used when a late joiner enters a running session.
//
// Precondition: entities includes the newly joined entity with its fresh
// initiative already set.
func (o *Order) Insert(entities []*entity.Entity) {
	prev := o.Current
	o.rebuild(entities)
	if prev == "" {
		return
	}
	for i, id := range o.Queue {
		if id == prev {
			rotated := make([]string, 0, len(o.Queue))
			rotated = append(rotated, o.Queue[i:]...)
			rotated = append(rotated, o.Queue[:i]...)
			o.Queue = rotated
			o.Current = prev
			return
		}
	}
}

// Advance rotates the queue left by one and sets Current to the new head.
// This is a pure round-robin rotation with no alive-check: a rotated-in head
// may already be dead, and callers are responsible for pruning.
//
// Postcondition: Returns (newCurrent, true), or ("", false) when the queue is
// empty (Current is cleared).
func (o *Order) Advance() (string, bool) {
	if len(o.Queue) == 0 {
		o.Current = ""
		return "", false
	}
	o.Queue = append(o.Queue[1:], o.Queue[0])
	o.Current = o.Queue[0]
	return o.Current, true
}

// Remove deletes id from the queue if present. If id held the current turn,
// the order advances immediately so the pointer is never left dangling.
func (o *Order) Remove(id string) {
	found := false
	filtered := o.Queue[:0]
	for _, qid := range o.Queue {
		if qid == id {
			found = true
			continue
		}
		filtered = append(filtered, qid)
	}
	if !found {
		return
	}
	o.Queue = filtered
	if o.Current == id {
		o.Advance()
	}
}

// Contains reports whether id is in the queue.
func (o *Order) Contains(id string) bool {
	for _, qid := range o.Queue {
		if qid == id {
			return true
		}
	}
	return false
}

// Append adds id to the queue tail if absent. When no entity holds the
// current turn, id takes it. Used by the revival path.
func (o *Order) Append(id string) {
	if o.Contains(id) {
		return
	}
	o.Queue = append(o.Queue, id)
	if o.Current == "" {
		o.Current = id
	}
}

// rebuild sorts entities by initiative descending with a stable tie-break on
// input order and resets Queue and Current.
func (o *Order) rebuild(entities []*entity.Entity) {
	sorted := make([]*entity.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Initiative > sorted[j].Initiative
	})

	o.Queue = make([]string, len(sorted))
	for i, e := range sorted {
		o.Queue[i] = e.ID
	}
	if len(o.Queue) > 0 {
		o.Current = o.Queue[0]
	} else {
		o.Current = ""
	}
}
