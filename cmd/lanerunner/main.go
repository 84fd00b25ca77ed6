package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/event"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	"github.com/lanerunner/lanerunner/internal/data"
	"github.com/lanerunner/lanerunner/internal/game"
	"github.com/lanerunner/lanerunner/internal/persist"
	"github.com/lanerunner/lanerunner/internal/scripting"
	"github.com/lanerunner/lanerunner/internal/system"
	"github.com/lanerunner/lanerunner/internal/view"
	"github.com/lanerunner/lanerunner/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	headless := flag.Bool("headless", false, "run without a terminal and restart after every crash")
	maxTicks := flag.Int("ticks", 0, "stop after this many ticks (0 = until quit)")
	flag.Parse()

	// 1. Load config
	cfgPath := "config/lanerunner.toml"
	if p := os.Getenv("LANERUNNER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger. The terminal belongs to the renderer unless headless.
	logOut := "stderr"
	if !*headless {
		logOut = "lanerunner.log"
	}
	log, err := newLogger(cfg.Logging, logOut)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load hazard catalog and pre-allocate pools
	catalog, err := data.LoadHazardCatalog(cfg.Hazards.Catalog)
	if err != nil {
		return fmt.Errorf("load hazard catalog: %w", err)
	}
	bus := event.NewBus()
	streamer, pools, err := world.NewStreamerFromConfig(cfg, catalog, bus, log)
	if err != nil {
		return fmt.Errorf("streamer: %w", err)
	}
	log.Info("pools allocated",
		zap.Int("track", pools.Pool(pool.KindTrack).Capacity()),
		zap.Int("hazard_variants", catalog.Count()),
		zap.Int("per_variant", cfg.Hazards.PoolCapacityPerVariant),
		zap.Int64("seed", cfg.Track.Seed),
	)

	// 4. Score rule
	var rule game.ScoreRule = game.LinearScore{}
	if cfg.Scripting.Enabled {
		luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		rule = luaEngine
	}

	// 5. Controller and collaborators
	avatar := world.NewAvatar(cfg.Track.LaneCount, cfg.Track.LaneWidth, cfg.Player.LaneChangeSpeed,
		pool.Vec3{Z: cfg.Run.PlayerStartZ})
	ctrl, err := game.NewController(game.ConfigFrom(cfg.Run), streamer, avatar, bus, rule, log)
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	quit := false
	commands := make(chan system.Command, 16)
	ctrl.RegisterAlways(system.NewInputSystem(commands, ctrl, avatar, func() { quit = true }, 16, log))
	ctrl.Register(system.NewAvatarSystem(avatar, cfg.Track.MaxStep.Duration))
	ctrl.Register(system.NewCollisionSystem(ctrl, ctrl, avatar, catalog, cfg.Player.Width, cfg.Player.Depth, log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 6. Optional run history
	if cfg.Database.Enabled {
		recorder, closeRecorder, err := openRecorder(ctx, cfg.Database, bus, log)
		if err != nil {
			return err
		}
		defer closeRecorder()
		ctrl.RegisterAlways(recorder)
	}

	// 7. Terminal front end
	var renderer *view.Renderer
	if !*headless {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal init: %w", err)
		}
		defer screen.Fini()
		_, h := screen.Size()
		ahead := float64(cfg.Track.VisibleSegments-1) * cfg.Track.SegmentLength
		renderer = view.NewRenderer(screen, catalog, cfg.Track.LaneCount, cfg.Track.LaneWidth, ahead/float64(max(h-4, 1)))
		go view.Poll(screen, commands)
	} else if err := ctrl.Start(); err != nil {
		return err
	}

	// 8. Game loop
	ticker := time.NewTicker(cfg.Run.TickRate.Duration)
	defer ticker.Stop()
	log.Info("game loop started", zap.Duration("tick", cfg.Run.TickRate.Duration), zap.Bool("headless", *headless))

	last := time.Now()
	for n := 0; *maxTicks == 0 || n < *maxTicks; n++ {
		select {
		case now := <-ticker.C:
			ctrl.Tick(now.Sub(last))
			last = now
			if *headless && ctrl.State() == game.Faulted {
				if err := ctrl.Start(); err != nil {
					return err
				}
			}
			if renderer != nil {
				renderer.Draw(ctrl, avatar.Position())
			}
			if quit {
				log.Info("quit requested", zap.Int64("score", ctrl.FinalScore()))
				return nil
			}
		case <-ctx.Done():
			log.Info("shutdown signal received", zap.Int64("score", ctrl.FinalScore()))
			return nil
		}
	}
	log.Info("tick limit reached",
		zap.Int("ticks", *maxTicks),
		zap.Int("attempts", ctrl.Run().Attempt),
		zap.Int64("score", ctrl.FinalScore()),
	)
	return nil
}

// openRecorder connects, migrates and starts the background history writer.
// The returned func flushes pending runs and waits briefly for the writer.
func openRecorder(ctx context.Context, cfg config.DatabaseConfig, bus *event.Bus, log *zap.Logger) (*system.RecorderSystem, func(), error) {
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	log.Info("run history enabled")

	recorder := system.NewRecorderSystem(bus, persist.NewRunRepo(db), cfg.FlushIntervalTicks, cfg.QueueSize, log)
	writerCtx, stopWriter := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		recorder.Run(writerCtx)
		close(done)
	}()

	return recorder, func() {
		recorder.Close()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			log.Warn("run history writer did not finish in time")
		}
		stopWriter()
		db.Close()
	}, nil
}

func newLogger(cfg config.LoggingConfig, output string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{output}

	return zapCfg.Build()
}
