package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/readyhire/internal"
	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/service"
)

// opener builds the practice service for one command run.
type opener func(ctx context.Context, a *app) (service.PracticeService, io.Closer, error)

// app is the state shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfgFile string
	jsonOut bool
	open    opener

	cfg    *internal.Config
	file   FileConfig
	logger *slog.Logger
	svc    service.PracticeService
	closer io.Closer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, open: openPractice}
}

// openPractice wires the configured state backend, AI provider and billing
// into a practice service.
func openPractice(ctx context.Context, a *app) (service.PracticeService, io.Closer, error) {
	store, err := internal.OpenState(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open state: %w", err)
	}

	provider, err := internal.NewProvider(a.cfg, a.logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	verifier, err := internal.NewVerifier(a.cfg, a.logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	policy := a.cfg.GenerationPolicy()
	svc := service.NewPracticeService(ctx, service.PracticeDeps{
		Store:            store,
		Provider:         provider,
		Billing:          verifier,
		Logger:           a.logger,
		GenerationPolicy: &policy,
		SyncOnStart:      a.cfg.SyncOnStart,
	})
	return svc, store, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "readyhire",
		Short: "Practise finance interviews from the terminal",
		Long: `ReadyHire generates interview questions and case studies from your CV
and target role, grades your answers and tracks your readiness.

State is kept on this device. Settings come from the environment and
` + "`$XDG_CONFIG_HOME/readyhire/config.toml`" + `.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/readyhire/config.toml)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newStatusCmd(a),
		newSignInCmd(a),
		newAnswerCmd(a, domain.SessionTypeQuestion),
		newAnswerCmd(a, domain.SessionTypeCase),
		newDrillCmd(a),
		newGenerateCmd(a),
		newCVCmd(a),
		newProblemCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newSyncCmd(a),
		newPrefsCmd(a),
		newLogoutCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := a.cfgFile
	if path == "" {
		path = DefaultConfigPath()
	}
	file, err := LoadConfig(path)
	if err != nil {
		return err
	}
	if err := file.Apply(cfg); err != nil {
		return err
	}

	a.cfg = cfg
	a.file = file
	a.logger = internal.NewLogger(a.stderr, cfg.Env, cfg.LogLevel)

	svc, closer, err := a.open(ctx, a)
	if err != nil {
		return err
	}
	a.svc = svc
	a.closer = closer
	return nil
}

func (a *app) teardown() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) palette(ctx context.Context) palette {
	return paletteFor(a.svc.Preferences(ctx).DarkMode)
}

// userMessage renders err for the terminal without internal details.
func userMessage(err error) string {
	var ve *domain.ValidationError
	var de *domain.Error
	if errors.As(err, &ve) || errors.As(err, &de) {
		return domain.ErrorMessage(err)
	}
	return err.Error()
}
