package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/tickpipe/config"
	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
)

func noEnv(string) (string, bool) { return "", false }

func TestParseFlagsDefaults(t *testing.T) {
	cfg, opts, err := parseFlags(nil, noEnv)
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if cfg.Pipeline.Mode != "lockstep" || cfg.Pipeline.Duration != 10*time.Second {
		t.Errorf("Expected lockstep for 10s, got %s for %v", cfg.Pipeline.Mode, cfg.Pipeline.Duration)
	}
	if opts.profile != "" {
		t.Errorf("Expected no profiling, got %q", opts.profile)
	}
}

// TestParseFlagsPrecedence verifies flags beat environment which beats the file
func TestParseFlagsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	body := "[pipeline]\nmode = \"free\"\nphysics_interval = \"5ms\"\nrender_interval = \"20ms\"\n\n[seed]\nswarm = 3\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	env := map[string]string{"TICKPIPE_RENDER_INTERVAL": "30ms"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, _, err := parseFlags([]string{"-config", path, "-swarm", "7", "-ticks", "99"}, lookup)
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if cfg.Pipeline.Mode != "free" || cfg.Pipeline.PhysicsInterval != 5*time.Millisecond {
		t.Errorf("Expected file values, got mode=%s physics=%v", cfg.Pipeline.Mode, cfg.Pipeline.PhysicsInterval)
	}
	if cfg.Pipeline.RenderInterval != 30*time.Millisecond {
		t.Errorf("Expected environment render interval 30ms, got %v", cfg.Pipeline.RenderInterval)
	}
	if cfg.Seed.Swarm != 7 || cfg.Pipeline.MaxTicks != 99 {
		t.Errorf("Expected flag overrides swarm=7 ticks=99, got %d and %d", cfg.Seed.Swarm, cfg.Pipeline.MaxTicks)
	}
}

func TestParseFlagsRejectsInvalid(t *testing.T) {
	cases := [][]string{
		{"-mode", "sideways"},
		{"-profile", "heap"},
		{"-swarm", "-1"},
		{"-config", "/nonexistent/tickpipe.toml"},
	}
	for _, args := range cases {
		if _, _, err := parseFlags(args, noEnv); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestSeedWorldDemo(t *testing.T) {
	store := engine.NewStore()
	n, err := seedWorld(store, config.Default())
	if err != nil {
		t.Fatalf("seedWorld failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 entities, got %d", n)
	}
	if p := store.Positions(0)[0]; p.X != 40 || p.Y != 12 {
		t.Errorf("Expected P at (40,12), got (%v,%v)", p.X, p.Y)
	}
	if h := store.HealthOf(1); h.Current != 50 || store.Glyphs()[1] != 'M' {
		t.Errorf("Expected M with 50 HP, got %q with %d", rune(store.Glyphs()[1]), h.Current)
	}
}

func TestSeedWorldSwarmOverflow(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Swarm = core.Capacity

	store := engine.NewStore()
	n, err := seedWorld(store, cfg)
	if !errors.Is(err, core.ErrFull) {
		t.Errorf("Expected ErrFull, got %v", err)
	}
	if n != core.Capacity {
		t.Errorf("Expected table filled to %d, got %d", core.Capacity, n)
	}
}

func TestSeedWorldSwarmDeterministic(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Swarm = 20
	cfg.Seed.SwarmSeed = 42

	a, b := engine.NewStore(), engine.NewStore()
	if _, err := seedWorld(a, cfg); err != nil {
		t.Fatalf("seedWorld failed: %v", err)
	}
	if _, err := seedWorld(b, cfg); err != nil {
		t.Fatalf("seedWorld failed: %v", err)
	}
	for i := 0; i < 22; i++ {
		pa, pb := a.Positions(0)[i], b.Positions(0)[i]
		if pa != pb {
			t.Fatalf("Entity %d: expected identical seeding, got %+v and %+v", i, pa, pb)
		}
		if pa.X < 0 || pa.X > float64(cfg.World.Width-1) || pa.Y < 0 || pa.Y > float64(cfg.World.Height-1) {
			t.Errorf("Entity %d seeded outside world: %+v", i, pa)
		}
	}
}

// TestRunHeadless drives a short lockstep run and checks the final report
func TestRunHeadless(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-headless", "-ticks", "40", "-physics", "0", "-duration", "10s"}, &out)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "[Entity 0] HP: 100 | [Entity 1] HP: 40 | ") {
		t.Errorf("Expected one wall hit on M after 40 ticks, got tail %q", tail(text, 200))
	}
	if !strings.Contains(text, "tick:40 frame:40 hits:1") {
		t.Errorf("Expected summary for 40 ticks, got tail %q", tail(text, 200))
	}
	if strings.Contains(text, "TORN") {
		t.Error("Expected no torn frames")
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
