package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reptimer/internal/audio"
	"reptimer/internal/config"
	"reptimer/internal/core/model"
	"reptimer/internal/core/timekeeper"
	"reptimer/internal/core/tone"
	"reptimer/internal/logging"
	"reptimer/internal/statews"
	"reptimer/internal/storage"
)

const appName = "reptimer"

// runFlags holds the timer-shaping flags and which of them were set.
type runFlags struct {
	preset   string
	duration int
	repeat   int
	infinite bool
	delay    int
	toneID   string
	volume   float64
	set      map[string]bool
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		dataDir    = flag.String("data-dir", "", "Directory holding timers.yaml and settings.yaml")
		wsListen   = flag.String("ws-listen", "", "Serve state snapshots over websocket on this address (e.g. 127.0.0.1:8765)")
		logLevel   = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		noAudio    = flag.Bool("no-audio", false, "Do not play tones")
		listTones  = flag.Bool("list-tones", false, "Print the tone catalog and exit")

		run runFlags
	)
	flag.StringVar(&run.preset, "preset", "", "Saved preset to run, by id or name")
	flag.IntVar(&run.duration, "duration", 60, "Countdown length in seconds")
	flag.IntVar(&run.repeat, "repeat", 1, "Number of repetitions")
	flag.BoolVar(&run.infinite, "infinite", false, "Repeat until stopped")
	flag.IntVar(&run.delay, "delay", 0, "Seconds of rest between repetitions")
	flag.StringVar(&run.toneID, "tone", "", "Tone id played at the end of each repetition")
	flag.Float64Var(&run.volume, "volume", 0, "Tone volume from 0 to 1")
	flag.Parse()

	if *listTones {
		for _, id := range tone.IDs() {
			t, _ := tone.Lookup(id)
			fmt.Printf("%-8s %6.0f Hz  %v\n", id, t.Frequency, t.Duration())
		}
		return
	}

	run.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { run.set[f.Name] = true })

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	overrides := config.FlagOverrides{}
	if run.set["data-dir"] {
		overrides.DataDir = dataDir
	}
	if run.set["ws-listen"] {
		overrides.WSListen = wsListen
	}
	if run.set["log-level"] {
		overrides.LogLevel = logLevel
	}
	if run.set["no-audio"] {
		overrides.AudioOff = noAudio
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.New(level)

	dir := cfg.DataDir
	if dir == "" {
		var err error
		dir, err = storage.DefaultDir(appName)
		if err != nil {
			logger.Error("resolve data dir", "error", err)
			os.Exit(1)
		}
	}
	store := storage.NewStore(dir, logger)

	timerConfig, err := buildTimerConfig(store, run, time.Now())
	if err != nil {
		logger.Error("build timer", "error", err)
		os.Exit(1)
	}

	if err := runTimer(cfg, timerConfig, logger); err != nil {
		logger.Error("reptimerd failed", "error", err)
		os.Exit(1)
	}
}

// buildTimerConfig resolves the preset, or the settings defaults, and
// applies every explicitly set flag on top.
func buildTimerConfig(store *storage.Store, run runFlags, now time.Time) (model.TimerConfig, error) {
	var timerConfig model.TimerConfig
	if run.preset != "" {
		found, err := store.FindTimer(run.preset)
		if err != nil {
			return model.TimerConfig{}, fmt.Errorf("preset %q: %w", run.preset, err)
		}
		timerConfig = found
	} else {
		settings := store.LoadSettings()
		timerConfig = model.NewTimerConfig(settings.NewTimerSpec("", run.duration), now)
	}

	if run.set["duration"] {
		timerConfig.DurationSeconds = run.duration
	}
	if run.set["repeat"] {
		timerConfig.RepeatCount = run.repeat
	}
	if run.set["infinite"] {
		timerConfig.InfiniteRepeat = run.infinite
	}
	if run.set["delay"] {
		timerConfig.DelaySeconds = run.delay
	}
	if run.set["tone"] {
		timerConfig.ToneID = run.toneID
	}
	if run.set["volume"] {
		timerConfig.Volume = run.volume
	}
	if _, ok := tone.Lookup(timerConfig.ToneID); !ok && timerConfig.ToneID != "" {
		return model.TimerConfig{}, fmt.Errorf("unknown tone %q", timerConfig.ToneID)
	}
	return timerConfig.Normalize(), nil
}

func runTimer(cfg config.Config, timerConfig model.TimerConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var playTone timekeeper.ToneFunc
	var player *audio.Player
	if cfg.Audio.Enabled {
		player = audio.NewPlayer(logger)
		playTone = audio.ToneHook(player)
		defer player.Stop()
	}

	keeper := timekeeper.New(timekeeper.Options{PlayTone: playTone, Logger: logger})
	defer keeper.Close()

	events := keeper.Subscribe()
	defer events.Close()

	if cfg.StateWS.ListenAddr != "" {
		shutdown, err := serveStateWS(ctx, cfg.StateWS, keeper, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	logger.Info("timer starting",
		"id", timerConfig.ID,
		"name", timerConfig.Name,
		"duration_seconds", timerConfig.DurationSeconds,
		"repeat", timerConfig.RepeatCount,
		"infinite", timerConfig.InfiniteRepeat,
		"delay_seconds", timerConfig.DelaySeconds,
		"tone", timerConfig.ToneID)
	keeper.Start(timerConfig)

	lastRep := 0
	for {
		select {
		case sig := <-sigc:
			logger.Info("shutdown signal", "signal", sig.String())
			keeper.Stop()
			return nil

		case state, ok := <-events.Events():
			if !ok {
				return errors.New("snapshot stream closed")
			}
			logger.Debug("snapshot",
				"phase", state.Phase.String(),
				"remaining", state.SecondsRemaining,
				"rep", state.CurrentRep,
				"total", state.TotalReps)
			if state.CurrentRep != lastRep {
				lastRep = state.CurrentRep
				logger.Info("repetition", "rep", state.CurrentRep, "total", state.TotalReps, "phase", state.Phase.String())
			}
			if state.Phase.Kind() == timekeeper.PhaseCompleted {
				logger.Info("timer completed", "reps", state.CurrentRep)
				if player != nil {
					// The final tone plays asynchronously; let it finish.
					time.Sleep(tone.Resolve(timerConfig.ToneID).Duration())
				}
				return nil
			}
		}
	}
}

func serveStateWS(ctx context.Context, cfg config.StateWSConfig, keeper *timekeeper.TimeKeeper, logger *slog.Logger) (func(), error) {
	server := statews.NewServer(logger, keeper, statews.ServerConfig{
		Hub: statews.HubConfig{SendBuf: cfg.SendBuf, BroadcastBuf: cfg.BroadcastBuf},
	})
	go server.Hub().Run(ctx)
	go statews.RunBroadcaster(ctx, server.Hub(), keeper.Subscribe(), logger)

	mux := http.NewServeMux()
	server.Register(mux, cfg.Path)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("state ws server error", "error", err)
		}
	}()
	logger.Info("state ws listening", "addr", cfg.ListenAddr, "path", cfg.Path)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}, nil
}
