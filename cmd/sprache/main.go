package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/windfall/sprache/internal/apiclient"
	"github.com/windfall/sprache/internal/config"
	"github.com/windfall/sprache/internal/errors"
	"github.com/windfall/sprache/internal/logger"
	"github.com/windfall/sprache/internal/session"
)

func main() {
	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	output string
	apiURL string

	cfg    *config.Config
	log    zerolog.Logger
	store  session.Store
	client *apiclient.Client
}

func (a *app) init(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	a.cfg = cfg

	// Initialize logger
	a.log = logger.New(cfg.LogLevel, cfg.LogFormat)

	// Open the session token store
	store, err := session.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	a.store = store

	a.client = apiclient.NewFromConfig(cfg, store, logger.Component(a.log, "apiclient"))
	a.log.Debug().
		Str("api_url", a.client.BaseURL()).
		Str("token_store", cfg.TokenStore).
		Msg("Client initialized")
	return nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close token store")
	}
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{log: zerolog.Nop()}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if errors.IsSessionExpired(err) && a.store != nil {
		if clearErr := a.store.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			a.log.Error().Err(clearErr).Msg("Failed to clear expired token")
		}
		fmt.Fprintf(stderr, "%s Run `sprache login` to sign in again.\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "Error: %s\n", err)
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "sprache",
		Short:         "Command-line client for the Sprache language-learning backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(a.output); err != nil {
				return err
			}
			return a.init(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputYAML, "output format: yaml|json")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "backend base URL (overrides API_URL)")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newSocialLoginCmd(a))
	root.AddCommand(newRecoverCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newSpeakingCmd(a))
	root.AddCommand(newPracticeCmd(a))
	root.AddCommand(newPodcastsCmd(a))
	root.AddCommand(newWordsCmd(a))
	return root
}
