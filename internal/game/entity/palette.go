package entity

import "github.com/pmourey/fungame/internal/game/dice"

// Palette is the fixed set of entity colors, assigned in order on join.
var Palette = []int{
	0x00ff00, // green
	0x0000ff, // blue
	0xff0000, // red
	0xffff00, // yellow
	0xff00ff, // magenta
	0x00ffff, // cyan
	0x8888ff, // light purple
	0xff8800, // orange
}

// PickColor returns the first palette color not present in used. When every
// palette color is taken it falls back to a uniform random palette pick.
//
// Precondition: src must be non-nil.
func PickColor(used map[int]bool, src dice.Source) int {
	for _, c := range Palette {
		if !used[c] {
			return c
		}
	}
	return Palette[src.Intn(len(Palette))]
}
