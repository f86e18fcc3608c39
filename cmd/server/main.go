// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/trackcore/internal/api/httpapi"
	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/app/session"
	"github.com/osa030/trackcore/internal/infra/backend"
	"github.com/osa030/trackcore/internal/infra/config"
	"github.com/osa030/trackcore/internal/infra/logger"
	"github.com/osa030/trackcore/internal/infra/mpris"
)

var (
	app        = kingpin.New("trackcore-server", "trackcore playback engine server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-signals command
	listSignalsCmd = app.Command("list-signals", "List remote signals and the capabilities enabling them, then exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listSignalsCmd.FullCommand() {
		printSignals()
		return
	}

	// Console logging until the config is read
	if _, err := logger.Init(logger.Config{Level: flagLevel("info")}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Command-line flags override the config file
	logCfg := logger.Config{Level: flagLevel(cfg.Log.Level), File: cfg.Log.File}
	if *logfile != "" {
		logCfg.File = *logfile
	}
	closer, err := logger.Init(logCfg)
	if err != nil {
		zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
	}
	defer closer.Close()

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

func flagLevel(level string) string {
	if *verbose {
		return "debug"
	}
	return level
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim, err := backend.NewSimulator(cfg.Simulator)
	if err != nil {
		return errors.Wrap(err, "failed to create backend")
	}

	m := session.NewManager(sim)
	defer m.Close()

	if err := notification.RegisterEventHandler(logEvent); err != nil {
		return err
	}
	defer notification.UnregisterEventHandler()
	if cfg.MPRIS.Enabled {
		if err := notification.RegisterPlaybackService(mpris.Service(cfg.MPRIS.Name, m)); err != nil {
			return err
		}
		defer notification.UnregisterPlaybackService()
	}

	if err := m.UpdateOptions(ctx, cfg.MetadataOptions()); err != nil {
		return errors.Wrap(err, "failed to apply metadata options")
	}
	if err := m.SetupPlayer(ctx, cfg.Player); err != nil {
		return errors.Wrap(err, "failed to set up player")
	}

	srv := httpapi.NewServer(cfg.Server.Addr, httpapi.NewHandler(m, cfg.Server.Token))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	<-gctx.Done()
	zlog.Info().Msg("Shutting down...")
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	// Close the session before the hooks so the playback service is stopped
	m.Close()
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return err
}

// logEvent is the process-wide event handler of the server.
func logEvent(t notification.Type, ev notification.Event) {
	if t == notification.TypePlaybackError {
		if p, ok := ev.Payload.(notification.ErrorPayload); ok {
			zlog.Warn().Msgf("event #%d %s: %s (%s)", ev.Seq, t, p.Message, p.Code)
			return
		}
	}
	zlog.Debug().Msgf("event #%d %s: %+v", ev.Seq, t, ev.Payload)
}

// printSignals prints the remote signals.
func printSignals() {
	fmt.Println("Remote Signals:")
	for _, s := range remote.Signals() {
		caps := make([]string, 0, len(s.Capabilities()))
		for _, c := range s.Capabilities() {
			caps = append(caps, c.String())
		}
		if len(caps) == 0 {
			caps = append(caps, "always")
		}
		fmt.Printf("  %-15s - emits %-24s [capabilities: %s]\n", s, s.Event(), strings.Join(caps, ", "))
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
