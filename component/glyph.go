package component

// Glyph is the single display character of an entity
type Glyph rune

// NoGlyph marks an entity as not rendered
const NoGlyph Glyph = 0

// Visible reports whether the glyph produces a draw packet
func (g Glyph) Visible() bool {
	return g != NoGlyph
}
