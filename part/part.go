// Package part is the drawable, list-linkable base shared by pooled sprite parts
// Concrete parts embed Base for position and list membership and supply Draw
package part

import (
	"github.com/lixenwraith/slivers/palette"
	"github.com/lixenwraith/slivers/vmath"
)

// Detached is the list position of a part that belongs to no list
const Detached = -1

// Canvas receives plotted cells from draw hooks
type Canvas interface {
	Plot(x, y int, glyph rune, c palette.RGB)
}

// Part is the capability a pool operates through
type Part interface {
	Index() int
	Position() vmath.Vec2
	ListPos() int
	SetListPos(pos int)
	Detach()
	Draw(c Canvas)
}

// Base holds the state every part carries
type Base struct {
	index   int
	Sprite  int
	Pos     vmath.Vec2 // Q32.32 position
	listPos int
}

// Bind assigns the slot identity and leaves the part detached
func (b *Base) Bind(index int) {
	b.index = index
	b.Sprite = 0
	b.Pos = vmath.Vec2{}
	b.listPos = Detached
}

func (b *Base) Index() int { return b.index }
func (b *Base) Position() vmath.Vec2 { return b.Pos }
func (b *Base) ListPos() int { return b.listPos }
func (b *Base) SetListPos(pos int) { b.listPos = pos }
func (b *Base) Detach() { b.listPos = Detached }
func (b *Base) Linked() bool { return b.listPos != Detached }
