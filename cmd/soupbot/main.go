// Command soupbot runs the 海龟汤 (turtle soup) interrogation engine as an
// interactive terminal session, with an optional ops listener exposing
// metrics and health endpoints.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/joho/godotenv"

	"github.com/glzhang/soupbot/internal/config"
	"github.com/glzhang/soupbot/internal/dialogue"
	"github.com/glzhang/soupbot/internal/entitle"
	"github.com/glzhang/soupbot/internal/health"
	"github.com/glzhang/soupbot/internal/observe"
	"github.com/glzhang/soupbot/internal/oracle"
	anyllmjudge "github.com/glzhang/soupbot/internal/oracle/anyllm"
	"github.com/glzhang/soupbot/internal/oracle/glm"
	"github.com/glzhang/soupbot/internal/puzzle"
	"github.com/glzhang/soupbot/internal/track"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "soupbot.yaml", "path to the YAML configuration file")
	flag.Parse()

	// API keys come from the environment; a .env file is a convenience for
	// local runs and its absence is not an error.
	_ = godotenv.Load()

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so the config watcher can adjust it
	// without rebuilding the handler.
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// ── Load configuration ────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(logLevel, old, new)
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "soupbot: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "soupbot: %v\n", err)
		}
		return 1
	}
	defer watcher.Stop()

	cfg := watcher.Current()
	logLevel.Set(slogLevel(cfg.Server.LogLevel))

	slog.Info("soupbot starting",
		"config", *configPath,
		"backend", cfg.Oracle.Backend,
		"deck", cfg.Deck.Path,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "soupbot",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// InitProvider has installed the global meter provider, so the default
	// instruments bind to the Prometheus exporter.
	metrics := observe.DefaultMetrics()

	// ── Judge ─────────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerJudgeBackends(reg)

	judge, err := reg.CreateJudge(cfg.Oracle)
	if err != nil {
		slog.Error("failed to create judge", "backend", cfg.Oracle.Backend, "err", err)
		return 1
	}
	judge = oracle.Instrument(judge, string(cfg.Oracle.Backend), metrics)
	slog.Info("judge created", "backend", cfg.Oracle.Backend, "model", cfg.Oracle.Model)

	// ── Deck ──────────────────────────────────────────────────────────────────
	deck, err := puzzle.Load(cfg.Deck.Path)
	if err != nil {
		slog.Error("failed to load puzzle deck", "path", cfg.Deck.Path, "err", err)
		return 1
	}
	if len(deck) == 0 {
		slog.Error("puzzle deck is empty", "path", cfg.Deck.Path)
		return 1
	}
	slog.Info("puzzle deck loaded", "path", cfg.Deck.Path, "puzzles", len(deck))

	// ── Tracker and gate ──────────────────────────────────────────────────────
	var tracker track.Tracker = &track.Memory{}
	if cfg.State.Path != "" {
		ft, err := track.OpenFile(cfg.State.Path)
		if err != nil {
			slog.Error("failed to open state file", "path", cfg.State.Path, "err", err)
			return 1
		}
		tracker = ft
	}

	var gate entitle.Gate = entitle.AllowAll{}
	if cfg.Gate.FreeTurns > 0 {
		gate = entitle.NewFreeTurns(cfg.Gate.FreeTurns)
	}

	// ── Dialogue engine ───────────────────────────────────────────────────────
	// revealDone lets the terminal loop block until the current reply has
	// finished its typewriter reveal.
	revealDone := make(chan struct{}, 1)
	var printed int // bytes of the current reply already on screen

	engine := dialogue.New(judge,
		dialogue.WithGate(gate),
		dialogue.WithTracker(tracker),
		dialogue.WithLogger(logger),
		dialogue.WithMetrics(metrics),
		dialogue.WithTurnBudget(cfg.Dialogue.TurnBudget),
		dialogue.WithRevealInterval(cfg.Dialogue.RevealInterval()),
		dialogue.OnUpdate(func(revealed string) {
			fmt.Print(revealed[printed:])
			printed = len(revealed)
		}),
		dialogue.OnDone(func() {
			fmt.Println()
			printed = 0
			select {
			case revealDone <- struct{}{}:
			default:
			}
		}),
	)

	// ── Ops listener ──────────────────────────────────────────────────────────
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.ListenAddr != "" {
		srv := opsServer(cfg, engine, metrics)
		g.Go(func() error {
			slog.Info("ops listener ready", "addr", cfg.Server.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// ── Terminal session ──────────────────────────────────────────────────────
	g.Go(func() error {
		defer stop() // closing stdin ends the whole process
		return runSession(ctx, engine, gate, deck, revealDone)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// version is stamped at build time via -ldflags.
var version = "dev"

// slogLevel maps a config log level onto its slog equivalent.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// applyConfigChange handles a config file reload. Only the log level is
// applied live; everything else takes effect on the next start.
func applyConfigChange(logLevel *slog.LevelVar, old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged {
		logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.RevealIntervalChanged || d.TurnBudgetChanged || d.RestartRequired {
		slog.Warn("config changed; restart soupbot to apply the remaining changes")
	}
}

// registerJudgeBackends wires the built-in judge factories into reg. Each
// factory resolves its API key from the environment variable named in the
// config, so keys never live in the config file itself.
func registerJudgeBackends(reg *config.Registry) {
	reg.RegisterJudge(config.BackendGLM, func(o config.OracleConfig) (oracle.Judge, error) {
		var opts []glm.Option
		if o.BaseURL != "" {
			opts = append(opts, glm.WithBaseURL(o.BaseURL))
		}
		if o.Model != "" {
			opts = append(opts, glm.WithModel(o.Model))
		}
		if o.TimeoutSeconds > 0 {
			opts = append(opts, glm.WithTimeout(o.Timeout()))
		}
		return glm.New(os.Getenv(o.APIKeyEnv), opts...)
	})

	reg.RegisterJudge(config.BackendAnyLLM, func(o config.OracleConfig) (oracle.Judge, error) {
		var opts []anyllmlib.Option
		if key := os.Getenv(o.APIKeyEnv); key != "" {
			opts = append(opts, anyllmlib.WithAPIKey(key))
		}
		if o.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(o.BaseURL))
		}
		return anyllmjudge.New(o.Provider, o.Model, opts...)
	})
}

// opsServer builds the metrics and health HTTP server. The OTel metrics
// flow to the default Prometheus registry via the exporter bridge, so
// promhttp serves them directly.
func opsServer(cfg *config.Config, engine *dialogue.Engine, metrics *observe.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	checks := []health.Checker{health.FileChecker("deck", cfg.Deck.Path)}
	if cfg.State.Path != "" {
		checks = append(checks, health.FileChecker("state", cfg.State.Path))
	}
	health.New(checks...).WithSnapshot(func() map[string]any {
		st := engine.Stats()
		return map[string]any{
			"state":           engine.State().String(),
			"questions_asked": st.QuestionsAsked,
			"correct_guesses": st.CorrectGuesses,
			"budget":          st.Budget,
			"solved":          st.Solved,
		}
	}).Register(mux)

	return &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// runSession drives the interactive question loop over stdin until EOF,
// "/quit", or context cancellation.
func runSession(ctx context.Context, engine *dialogue.Engine, gate entitle.Gate, deck []puzzle.Puzzle, revealDone <-chan struct{}) error {
	current := 0
	startRound := func() error {
		if err := engine.Reset(deck[current]); err != nil {
			return fmt.Errorf("reset round: %w", err)
		}
		return waitReveal(ctx, revealDone)
	}

	if err := startRound(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/next":
			current = (current + 1) % len(deck)
			if err := startRound(); err != nil {
				return err
			}
			continue
		case "/answer":
			fmt.Printf("【汤底】%s\n", deck[current].Solution)
			continue
		}

		switch err := engine.Submit(ctx, line); {
		case err == nil:
			if err := waitReveal(ctx, revealDone); err != nil {
				return err
			}
		case errors.Is(err, dialogue.ErrBusy):
			fmt.Println("（上一条回复还没说完，稍等一下…）")
		case errors.Is(err, dialogue.ErrTurnDenied):
			fmt.Println("（免费提问次数用完了）")
			if ft, ok := gate.(*entitle.FreeTurns); ok {
				slog.Debug("gate exhausted", "remaining", ft.Remaining())
			}
		default:
			return fmt.Errorf("submit: %w", err)
		}
	}
}

// waitReveal blocks until the current reply finishes revealing or the
// context is cancelled.
func waitReveal(ctx context.Context, revealDone <-chan struct{}) error {
	select {
	case <-revealDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
