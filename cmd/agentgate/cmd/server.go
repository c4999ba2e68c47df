package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/jmcleod/agentgate/agent"
	"github.com/jmcleod/agentgate/api"
	"github.com/jmcleod/agentgate/config"
	"github.com/jmcleod/agentgate/cookie"
	"github.com/jmcleod/agentgate/cors"
	"github.com/jmcleod/agentgate/session"
	"github.com/jmcleod/agentgate/users"
	"github.com/jmcleod/agentgate/web"
)

var (
	host      string
	port      int
	publicDir string
	envFile   string
	tlsCert   string
	tlsKey    string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer memguard.Purge()

		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("host") {
			cfg.Host = host
		}
		if flags.Changed("port") {
			cfg.Port = port
		}
		if flags.Changed("public-dir") {
			cfg.PublicDir = publicDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		handler, err := buildHandler(cfg, logger)
		if err != nil {
			return err
		}

		var tlsConfig *tls.Config
		if tlsCert != "" || tlsKey != "" {
			cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			tlsConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		server := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Queries may wait for the full agent timeout before replying.
			WriteTimeout: cfg.AgentTimeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if tlsConfig != nil {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner(cmd.OutOrStdout())
		logger.Info("listening",
			"addr", cfg.Addr(),
			"tls", tlsConfig != nil,
			"public_dir", cfg.PublicDir,
		)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// buildHandler wires every component from the resolved configuration.
func buildHandler(cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	store, err := users.Load(users.Source{
		UsersJSON: cfg.Users,
		Username:  cfg.AdminUsername,
		Password:  cfg.AdminPassword,
		Pages:     cfg.DefaultAllowedPages,
	})
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if cfg.Users == "" && cfg.AdminPassword == users.DefaultPassword {
		logger.Warn("using the default admin password; set ADMIN_PASSWORD or APP_USERS")
	}

	origins := cors.NewPolicy(cors.ParseList(cfg.AllowedOrigins))
	cookies, err := cookie.NewPolicy(cookie.Options{
		SameSite:    cfg.CookieSameSite,
		Secure:      cfg.SecureOverride(),
		CrossOrigin: origins.CrossOrigin(),
	})
	if err != nil {
		return nil, err
	}

	resolver, err := web.NewResolver(cfg.PublicDir)
	if err != nil {
		return nil, fmt.Errorf("public dir: %w", err)
	}

	agentOpts := []agent.OpenAIOption{
		agent.WithBaseURL(cfg.OpenAIBaseURL),
		agent.WithTimeout(cfg.AgentTimeout),
	}
	if cfg.AgentModel != "" {
		agentOpts = append(agentOpts, agent.WithModel(cfg.AgentModel))
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; queries will fail with 502")
	}

	logger.Info("configured",
		"users", store.Len(),
		"cross_origin", origins.CrossOrigin(),
		"cookie_attributes", cookies.Attributes(),
		"spa_fallback", cfg.SPAFallback,
	)

	a := api.New(api.Deps{
		Users:    store,
		Sessions: session.NewMemoryStore(),
		Cookies:  cookies,
		Origins:  origins,
		Static:   resolver,
		Agent:    agent.NewOpenAI(cfg.OpenAIAPIKey, agentOpts...),
	},
		api.WithLogger(logger),
		api.WithContentSecurityPolicy(cfg.CSP()),
		api.WithSPAFallback(cfg.SPAFallback),
		api.WithAlertFunc(func(e api.AlertEvent) {
			logger.Warn("alert",
				"type", string(e.Type),
				"message", e.Message,
				"count", e.Count,
				"threshold", e.Threshold,
			)
		}),
	)
	return a.Handler(), nil
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVar(&host, "host", "0.0.0.0", "Address to bind (overrides HOST)")
	serverCmd.Flags().IntVarP(&port, "port", "p", 8000, "Port to listen on (overrides PORT)")
	serverCmd.Flags().StringVar(&publicDir, "public-dir", "./public", "Static asset root (overrides PUBLIC_DIR)")
	serverCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment is read")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
