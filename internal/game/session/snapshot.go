package session

import "github.com/pmourey/fungame/internal/game/entity"

// Summary is the listing row for one session.
type Summary struct {
	ID     string `json:"sessionId"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Snapshot is the full externally visible state of a session at a point in
// time. All slices and entities are copies; mutating a snapshot never touches
// live session state.
type Snapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	Players     []entity.Entity `json:"players"`
	Monsters    []entity.Entity `json:"monsters"`
	TurnQueue   []string        `json:"turn_queue"`
	CurrentTurn string          `json:"current_turn"`
	Log         []Event         `json:"log"`
	Grid        [][]int         `json:"map"`
}

// Entity returns the snapshot entity with the given id, or nil.
func (s *Snapshot) Entity(id string) *entity.Entity {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	for i := range s.Monsters {
		if s.Monsters[i].ID == id {
			return &s.Monsters[i]
		}
	}
	return nil
}

// Entities returns all snapshot entities, players first, in join order.
func (s *Snapshot) Entities() []entity.Entity {
	out := make([]entity.Entity, 0, len(s.Players)+len(s.Monsters))
	out = append(out, s.Players...)
	out = append(out, s.Monsters...)
	return out
}

// Snapshot returns a consistent deep copy of the session state.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		ID:          s.id,
		Name:        s.name,
		Status:      s.status,
		Players:     make([]entity.Entity, 0, len(s.players)),
		Monsters:    make([]entity.Entity, 0, len(s.monsters)),
		TurnQueue:   append([]string(nil), s.order.Queue...),
		CurrentTurn: s.order.Current,
		Log:         append([]Event(nil), s.log...),
	}
	for _, e := range s.entitiesLocked() {
		switch e.Kind {
		case entity.KindPlayer:
			snap.Players = append(snap.Players, *e)
		case entity.KindMonster:
			snap.Monsters = append(snap.Monsters, *e)
		}
	}
	if s.grid != nil {
		snap.Grid = make([][]int, len(s.grid.Cells))
		for y, row := range s.grid.Cells {
			snap.Grid[y] = append([]int(nil), row...)
		}
	}
	return snap
}
