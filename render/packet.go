package render

import (
	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
)

// DrawPacket is the projected view of one visible entity for a single frame
type DrawPacket struct {
	Entity core.Entity
	Glyph  rune
	X, Y   int
}

// Frame is one render snapshot of a position buffer
type Frame struct {
	Buffer     int
	Generation uint64 // physics tick that wrote the buffer, 0 before the first step
	Packets    []DrawPacket
	Torn       bool // a visible slot carried a different generation than the rest
}

// Collect projects every active visible entity of buffer buf into packets in ascending id order
// Coordinates are truncated toward zero; the store is never mutated
// dst is reused when it has capacity
func Collect(store *engine.Store, buf int, dst []DrawPacket) Frame {
	positions := store.Positions(buf)
	stamps := store.Stamps(buf)
	glyphs := store.Glyphs()
	active := store.Active()

	f := Frame{Buffer: buf, Packets: dst[:0]}
	first := true
	for i := range active {
		if !active[i] || !glyphs[i].Visible() {
			continue
		}
		if first {
			f.Generation = stamps[i]
			first = false
		} else if stamps[i] != f.Generation {
			f.Torn = true
		}
		p := positions[i]
		f.Packets = append(f.Packets, DrawPacket{
			Entity: core.Entity(i),
			Glyph:  rune(glyphs[i]),
			X:      int(p.X),
			Y:      int(p.Y),
		})
	}
	return f
}
