/*
Package main is the entry point for the chatview client.

It loads configuration, initializes the global logging system, connects to the
chat server, runs the room session, serves the local view API and reads chat
input from the terminal. SIGINT and SIGTERM trigger a graceful shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"chatview/internal/app/bus"
	"chatview/internal/app/identity"
	"chatview/internal/app/session"
	"chatview/internal/app/transport"
	"chatview/internal/configs"
	"chatview/internal/handler"
	"chatview/internal/pkg/limiter"
	"chatview/internal/pkg/logx"
)

var rootCmd = &cobra.Command{
	Use:           "chatview",
	Short:         "Join a chat room and follow its roster and messages",
	RunE:          runChatView,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagServerURL string
	flagUsername  string
	flagPort      int
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagServerURL, "server-url", "", "chat server WebSocket URL (overrides CHAT_SERVER_URL)")
	flags.StringVar(&flagUsername, "username", "", "name announced to the room (overrides CHAT_USERNAME)")
	flags.IntVar(&flagPort, "port", 0, "local view API port, negative to disable (overrides VIEW_PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*configs.AppConfig, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("server-url") {
		cfg.ServerURL = flagServerURL
	}
	if flags.Changed("username") {
		cfg.Username = flagUsername
	}
	if flags.Changed("port") {
		cfg.ViewPort = flagPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runChatView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())

	username, err := identity.Resolve(cfg.Username)
	if err != nil {
		return fmt.Errorf("resolve username: %w", err)
	}

	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_url", cfg.ServerURL).
		Str("username", username).
		Int("view_port", cfg.ViewPort).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames := bus.New(0)
	go frames.Run()
	defer frames.Stop()

	conn, err := transport.Dial(ctx, cfg.ServerURL, frames, transport.Options{
		HandshakeTimeout: cfg.HandshakeTimeout,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	sess, err := session.New(session.Options{
		Username:   username,
		AvatarBase: cfg.AvatarBaseURL,
		Sender:     conn,
		Bus:        frames,
	})
	if err != nil {
		return err
	}

	console := NewConsole(sess, os.Stdout)
	sess.OnChange(console.Render)

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- sess.Run(ctx) }()

	go func() {
		if err := console.ReadLoop(ctx, os.Stdin); err != nil {
			logx.Error(err, "Console input stopped")
		}
	}()

	var server *http.Server
	if cfg.ViewEnabled() {
		router := handler.Router(&handler.AppDeps{
			Room:          sess,
			Config:        cfg,
			SubmitLimiter: limiter.New(ctx, rate.Limit(cfg.SubmitRate), cfg.SubmitBurst),
		})

		serverAddr := fmt.Sprintf("localhost:%d", cfg.ViewPort)
		server = &http.Server{
			Addr:         serverAddr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			logx.Info("View API starting", "addr", "http://"+serverAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logx.Error(err, "View API failed")
				stop()
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logx.Info("Received shutdown signal. Starting graceful shutdown...")
	case <-conn.Done():
		logx.Warn("Chat server connection closed. Shutting down...")
	case runErr = <-sessionErr:
		logx.Warn("Session ended. Shutting down...")
	}
	stop()

	if server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "View API forced to shutdown")
		}
	}

	logx.Info("chatview stopped.")
	return runErr
}
