package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/lixenwraith/tickpipe/component"
	"github.com/lixenwraith/tickpipe/config"
	"github.com/lixenwraith/tickpipe/engine"
)

// demoSeeds are the two entities every run starts with
var demoSeeds = []engine.Seed{
	{
		Position: component.Position{X: 40, Y: 12},
		Velocity: component.Velocity{VX: 0.5, VY: 0.2},
		Glyph:    '@',
		Health:   100,
	},
	{
		Position: component.Position{X: 10, Y: 5},
		Velocity: component.Velocity{VX: -0.3, VY: 0.1},
		Glyph:    'M',
		Health:   50,
	},
}

// swarmGlyphs cycles through lowercase letters for random entities
const swarmGlyphs = "abcdefghijklmnopqrstuvwxyz"

// seedWorld spawns the demo entities, then cfg.Seed.Swarm random ones
// Demo entities outside a smaller world are clamped to its last cell
func seedWorld(store *engine.Store, cfg *config.Config) (int, error) {
	maxX := float64(cfg.World.Width - 1)
	maxY := float64(cfg.World.Height - 1)

	for _, seed := range demoSeeds {
		seed.Position.X = min(seed.Position.X, maxX)
		seed.Position.Y = min(seed.Position.Y, maxY)
		if _, err := store.Spawn(seed); err != nil {
			return store.Count(), fmt.Errorf("seed demo entity %q: %w", rune(seed.Glyph), err)
		}
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed.SwarmSeed), 0x9e3779b97f4a7c15))
	for i := 0; i < cfg.Seed.Swarm; i++ {
		_, err := store.Spawn(engine.Seed{
			Position: component.Position{X: rng.Float64() * maxX, Y: rng.Float64() * maxY},
			Velocity: component.Velocity{VX: rng.Float64()*2 - 1, VY: rng.Float64() - 0.5},
			Glyph:    component.Glyph(swarmGlyphs[i%len(swarmGlyphs)]),
			Health:   10 + rng.IntN(91),
		})
		if err != nil {
			return store.Count(), fmt.Errorf("seed swarm entity %d: %w", i, err)
		}
	}
	return store.Count(), nil
}
