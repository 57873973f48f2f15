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

	"github.com/jaminalder/tictactoe-engine/internal/app"
	"github.com/jaminalder/tictactoe-engine/internal/config"
	"github.com/jaminalder/tictactoe-engine/internal/domain"
	"github.com/jaminalder/tictactoe-engine/internal/logger"
	"github.com/jaminalder/tictactoe-engine/internal/repository"
	"github.com/jaminalder/tictactoe-engine/internal/term"
	"github.com/jaminalder/tictactoe-engine/internal/web"
)

const shutdownTimeout = 5 * time.Second

const usage = `usage:
  tictactoe serve [-config path]   run the web server
  tictactoe play [-mode pvp|easy|hard]   play in the terminal
`

// main is the entry point: it dispatches to the serve or play subcommand.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(ctx, os.Args[2:])
	case "play":
		err = play(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "tictactoe: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "config.yml", "Path to a YAML config file; environment variables apply when it is missing")
	_ = fs.Parse(args)

	conf := config.MustLoad(*configPath)
	baseLogger := logger.New(os.Stdout, conf.LogLevel, conf.LogFormat)
	log := baseLogger.With("component", "main")

	repo, closeRepo, err := initRepository(ctx, conf, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := app.NewService(baseLogger, repo, app.WithComputerDelay(conf.ComputerMoveDelay()))
	defer svc.Close()

	srv := &http.Server{
		Addr:              conf.HTTPAddr,
		Handler:           web.NewServer(baseLogger, svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "addr", conf.HTTPAddr, "storage", conf.Storage)
		if httpErr := srv.ListenAndServe(); !errors.Is(httpErr, http.ErrServerClosed) {
			httpErrCh <- httpErr
		}
		close(httpErrCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Received signal, shutting down")
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// SSE streams only end once their subscriptions are closed
	svc.Close()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down HTTP server: %w", err)
	}
	return nil
}

// initRepository picks the game storage named in the config.
func initRepository(ctx context.Context, conf *config.Config, log *slog.Logger) (repository.GameRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		return repository.NewMemoryGameRepository(conf.SessionTTL), func() {}, nil
	}

	client, err := repository.NewRedisClient(ctx, conf.Redis.Addr(), conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}
	return repository.NewGameRepository(client, conf.SessionTTL), closeFn, nil
}

func play(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	modeName := fs.String("mode", "hard", "Game mode: pvp, easy or hard")
	_ = fs.Parse(args)

	mode, err := domain.ParseMode(*modeName)
	if err != nil {
		return err
	}

	ctrl := domain.NewController()
	ctrl.Restart(mode)
	return term.Loop(ctx, os.Stdin, os.Stdout, ctrl)
}
