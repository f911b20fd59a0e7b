// Package entity provides the combatant model shared by players and
// autonomous monsters.
package entity

import "github.com/google/uuid"

// Kind distinguishes player-originated entities from monster-originated ones.
type Kind int

const (
	KindPlayer Kind = iota
	KindMonster
)

// String returns the human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// Position is an integer grid cell.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Entity is one combatant in a session. The same shape serves both players
// and monsters; behavioural differences hang off Kind.
//
// Invariant: 0 <= HP <= MaxHP after every mutation through this package.
type Entity struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"-"`
	Name       string   `json:"name"`
	HP         int      `json:"hp"`
	MaxHP      int      `json:"max_hp"`
	AC         int      `json:"ac"`
	Position   Position `json:"position"`
	Initiative int      `json:"initiative"`
	Connected  bool     `json:"is_connected"`
	Color      int      `json:"color"`
	Score      int      `json:"score"`
}

// Default combat statistics for a freshly created player entity.
const (
	DefaultHP = 10
	DefaultAC = 10
)

// NewPlayer creates a player entity with a fresh unique id, full hit points,
// and the given display name and palette color.
//
// Precondition: name must be non-empty.
func NewPlayer(name string, color int) *Entity {
	return &Entity{
		ID:    newID(),
		Kind:  KindPlayer,
		Name:  name,
		HP:    DefaultHP,
		MaxHP: DefaultHP,
		AC:    DefaultAC,
		Color: color,
	}
}

// NewMonster creates a monster entity stamped from tmpl.
//
// Precondition: tmpl must be non-nil and validated.
func NewMonster(tmpl *Template, color int) *Entity {
	return &Entity{
		ID:    newID(),
		Kind:  KindMonster,
		Name:  tmpl.Name,
		HP:    tmpl.MaxHP,
		MaxHP: tmpl.MaxHP,
		AC:    tmpl.AC,
		Color: color,
	}
}

// IsDead reports whether the entity is dead. A dead entity blocks no grid
// cell, is no legal attack target, and may act only via revival.
func (e *Entity) IsDead() bool {
	return e.HP <= 0
}

// ApplyDamage reduces HP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: HP >= 0.
func (e *Entity) ApplyDamage(amount int) {
	e.HP -= amount
	if e.HP < 0 {
		e.HP = 0
	}
}

// Revive restores the entity to full hit points.
//
// Postcondition: HP == MaxHP.
func (e *Entity) Revive() {
	e.HP = e.MaxHP
}

func newID() string {
	return uuid.NewString()
}
