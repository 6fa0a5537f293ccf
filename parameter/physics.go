package parameter

// World Bounds
const (
	// WorldWidth is the reference world width in cells, x is clamped to [0, WorldWidth-1]
	WorldWidth = 80

	// WorldHeight is the reference world height in cells, y is clamped to [0, WorldHeight-1]
	WorldHeight = 25
)

// StepScale is the reference integration step, velocity is added once per tick
const StepScale = 1.0
