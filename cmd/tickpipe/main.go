package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/lixenwraith/tickpipe/audio"
	"github.com/lixenwraith/tickpipe/config"
	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/engine"
	"github.com/lixenwraith/tickpipe/event"
	"github.com/lixenwraith/tickpipe/render"
	"github.com/lixenwraith/tickpipe/status"
	"github.com/lixenwraith/tickpipe/system"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tickpipe: %v\n", err)
		os.Exit(1)
	}
}

// options carries flags that are not part of the config file
type options struct {
	profile string
}

// parseFlags resolves the configuration: defaults, TOML file, environment, then explicitly set flags
func parseFlags(args []string, lookup func(string) (string, bool)) (*config.Config, options, error) {
	fs := flag.NewFlagSet("tickpipe", flag.ContinueOnError)
	defaults := config.Default()

	configPath := fs.String("config", "", "TOML config file")
	mode := fs.String("mode", defaults.Pipeline.Mode, "Pipeline mode: lockstep, free")
	physics := fs.Duration("physics", defaults.Pipeline.PhysicsInterval, "Physics tick interval")
	renderEvery := fs.Duration("render", defaults.Pipeline.RenderInterval, "Render interval in free mode")
	ticks := fs.Uint64("ticks", 0, "Stop after this many ticks, 0 for no limit")
	duration := fs.Duration("duration", defaults.Pipeline.Duration, "Stop after this long, 0 for no limit")
	headless := fs.Bool("headless", false, "Write frames as text to stdout instead of the terminal screen")
	audioOn := fs.Bool("audio", false, "Play hit cues")
	debug := fs.Bool("debug", false, "Write a debug log file")
	swarm := fs.Int("swarm", 0, "Extra random entities to spawn")
	profileMode := fs.String("profile", "", "Profile the run: cpu, mem, block, mutex")

	if err := fs.Parse(args); err != nil {
		return nil, options{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, options{}, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, options{}, err
	}

	// Only flags given on the command line override file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Pipeline.Mode = *mode
		case "physics":
			cfg.Pipeline.PhysicsInterval = *physics
		case "render":
			cfg.Pipeline.RenderInterval = *renderEvery
		case "ticks":
			cfg.Pipeline.MaxTicks = *ticks
		case "duration":
			cfg.Pipeline.Duration = *duration
		case "headless":
			cfg.Render.Headless = *headless
		case "audio":
			cfg.Audio.Enabled = *audioOn
		case "debug":
			cfg.Log.Debug = *debug
		case "swarm":
			cfg.Seed.Swarm = *swarm
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, options{}, fmt.Errorf("invalid configuration: %w", err)
	}
	switch *profileMode {
	case "", "cpu", "mem", "block", "mutex":
	default:
		return nil, options{}, fmt.Errorf("unknown profile mode %q", *profileMode)
	}
	return cfg, options{profile: *profileMode}, nil
}

// startProfile begins the requested profile; the returned func stops it
func startProfile(mode, dir string) func() {
	var kind func(*profile.Profile)
	switch mode {
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfile
	case "block":
		kind = profile.BlockProfile
	case "mutex":
		kind = profile.MutexProfile
	default:
		return func() {}
	}
	p := profile.Start(kind, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
}

// run wires the pipeline and blocks until a stop trigger fires
func run(args []string, stdout io.Writer) error {
	cfg, opts, err := parseFlags(args, os.LookupEnv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	runID := uuid.NewString()
	logger, logFile := setupLogging(cfg.Log, runID)
	if logFile != nil {
		defer logFile.Close()
	}
	defer startProfile(opts.profile, cfg.Log.Dir)()

	store := engine.NewStore()
	count, err := seedWorld(store, cfg)
	if err != nil {
		return err
	}
	logger.Info("world seeded", "entities", count, "width", cfg.World.Width, "height", cfg.World.Height)

	reg := status.NewRegistry()
	queue := event.NewQueue()
	bounds := system.Bounds{Width: cfg.World.Width, Height: cfg.World.Height}
	physics := system.NewPhysicsSystem(store, queue, bounds, cfg.Pipeline.StepScale)
	damage := system.NewDamageSystem(store, queue, cfg.Damage.Penalty, logger, reg)

	if cfg.Audio.Enabled {
		sm := audio.NewSoundManager(audioConfig(cfg.Audio))
		if err := sm.Initialize(); err != nil {
			logger.Warn("audio unavailable, continuing without cues", "error", err)
		} else {
			damage.SetNotifier(sm)
			defer sm.Cleanup()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Pipeline.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.Duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		sink       render.Sink
		finiScreen = func() {}
	)
	if cfg.Render.Headless {
		sink = render.NewWriterSink(stdout, cfg.World.Width, cfg.World.Height, cfg.Render.Clear)
	} else {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init screen: %w", err)
		}
		var once sync.Once
		finiScreen = func() { once.Do(screen.Fini) }
		defer finiScreen()
		core.SetCrashCleanup(finiScreen)

		sink = render.NewScreenSink(screen, cfg.World.Width, cfg.World.Height, reg)
		core.Go(func() { pollInput(screen, cancel) })
	}

	driverCfg := cfg.DriverConfig()
	pass := render.NewPass(store, sink, reg)
	coord := engine.NewCoordinator(store, physics, pass, engine.CoordinatorOptions{
		AutoRender: driverCfg.Mode == engine.ModeLockstep,
		Logger:     logger,
		Status:     reg,
	})
	driver := engine.NewDriver(coord, damage, driverCfg, logger, reg)

	start := time.Now()
	runErr := driver.Run(ctx)
	stopErr := coord.Stop(cfg.Pipeline.ShutdownTimeout)
	finiScreen()

	logger.Info("run summary",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"ticks", coord.Tick(),
		"frames", coord.Frames(),
		"metrics", reg.Dump(),
	)
	fmt.Fprintln(stdout, render.HealthLine(render.NewHealthView(store)))
	fmt.Fprintln(stdout, reg.Summary())

	return errors.Join(runErr, stopErr)
}

// pollInput cancels the run on q, Esc, or Ctrl-C; returns once the screen is finalized
func pollInput(screen tcell.Screen, cancel context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				cancel()
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

func audioConfig(c config.AudioConfig) *audio.AudioConfig {
	ac := audio.DefaultAudioConfig()
	ac.Enabled = c.Enabled
	ac.MasterVolume = c.Volume
	ac.SampleRate = c.SampleRate
	return ac
}
