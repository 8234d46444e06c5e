/*
 * file: main.go
 * package: main
 * description:
 *     This file initializes the application by setting up dependencies,
 *     configuring logging and metrics, and launching the TCP listener
 *     that accepts one goroutine per client connection. It follows a
 *     dependency injection pattern to wire together components,
 *     promoting a decoupled and testable architecture.
 */

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/juan10024/jeux-server/internal/adapters/dispatcher"
	"github.com/juan10024/jeux-server/internal/adapters/transport"
	"github.com/juan10024/jeux-server/internal/core/services"
	"github.com/juan10024/jeux-server/internal/infra/config"
	"github.com/juan10024/jeux-server/internal/infra/metrics"
)

/*
 * main is the entry point of the application.
 *
 * This function performs the following tasks:
 *   - Loads configuration from flags and an optional .env file.
 *   - Sets up the player registry, client registry, metrics, and logger.
 *   - Starts the TCP listener and dispatches one goroutine per accepted
 *     connection.
 *   - On SIGINT/SIGTERM/SIGHUP, half-closes every connection and waits
 *     for all service goroutines to finish before exiting.
 */
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		zerolog.New(os.Stderr).With().Timestamp().Logger().Fatal().Err(err).Msg("configuration error")
	}

	logger := newLogger(cfg.LogLevel)

	players := services.NewPlayerRegistry()
	clients := services.NewClientRegistry(cfg.MaxClients, logger)
	mtr := metrics.New()
	clients.OnRegister = func() { mtr.ConnectionsActive.Inc() }
	clients.OnUnregister = func() { mtr.ConnectionsActive.Dec() }

	disp := &dispatcher.Dispatcher{
		Players: players,
		Clients: clients,
		Log:     logger,

		OnLogin:       mtr.LoginsTotal.Inc,
		OnInvitation:  mtr.InvitationsTotal.Inc,
		OnGameStarted: mtr.GamesStartedTotal.Inc,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	go metrics.Serve(ctx, cfg.MetricsAddr, logger)

	listener, err := net.Listen("tcp", addrForPort(cfg.Port))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open listener")
	}
	logger.Info().Int("port", cfg.Port).Msg("jeux-server listening")

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return acceptLoop(gctx, listener, clients, disp, mtr, logger)
	})

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, draining connections")
	_ = listener.Close()
	clients.ShutdownAll()

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := clients.WaitForEmpty(waitCtx); err != nil {
		logger.Warn().Err(err).Msg("timed out waiting for connections to drain")
	}

	if err := group.Wait(); err != nil && gctx.Err() == nil {
		logger.Error().Err(err).Msg("accept loop exited with error")
	}
	logger.Info().Msg("jeux-server terminating")
}

func acceptLoop(
	ctx context.Context,
	listener net.Listener,
	clients *services.ClientRegistry,
	disp *dispatcher.Dispatcher,
	mtr *metrics.Metrics,
	logger zerolog.Logger,
) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		rawConn := conn
		client := services.NewClient(services.TicTacToeEngine{}, logger)
		client.OnGameEnded = mtr.GamesFinishedTotal.Inc
		client.OnInvitationOpened = mtr.InvitationsOpen.Inc
		client.OnInvitationClosed = mtr.InvitationsOpen.Dec
		client.Shutdown = func() { transport.HalfCloseRead(rawConn) }
		if err := clients.Register(client); err != nil {
			logger.Warn().Err(err).Msg("rejecting connection, registry at capacity")
			_ = rawConn.Close()
			continue
		}

		go func() {
			defer clients.Unregister(client)
			c := transport.New(rawConn, client, logger)
			c.Serve(ctx, disp.Handle)
		}()
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func addrForPort(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}
