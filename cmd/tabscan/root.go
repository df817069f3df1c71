package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/config"
	"github.com/jackzampolin/tabscan/internal/home"
	"github.com/jackzampolin/tabscan/internal/llmcall"
	"github.com/jackzampolin/tabscan/internal/output"
	"github.com/jackzampolin/tabscan/internal/profile"
	"github.com/jackzampolin/tabscan/internal/prompts"
	"github.com/jackzampolin/tabscan/internal/providers"
	"github.com/jackzampolin/tabscan/internal/recognize"
	"github.com/jackzampolin/tabscan/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
	traceFile    string
)

var rootCmd = &cobra.Command{
	Use:   "tabscan",
	Short: "Turn photographed tables into validated CSV and spreadsheets",
	Long: `tabscan sends table photos to a vision language model and keeps asking
until the reply is a well-formed table with a consistent column count.

Recognition modes:
  - free-form: the model chooses the header row
  - headers:   you supply the header row (--headers "Date,Item,Qty")
  - profile:   a derived prompt profile describes columns and row rules

Batch mode collects many images into one xlsx workbook with a source column.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tabscan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "tabscan home directory (default: ~/.tabscan)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log every attempt at debug level",
	)
	rootCmd.PersistentFlags().StringVar(
		&traceFile, "trace", "", "append every recognition attempt to this JSON-lines file",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		f, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		output.SetFormat(f)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// env is what most commands need: home, config, catalog, prompts, logger.
type env struct {
	home    *home.Dir
	cfg     *config.Config
	mgr     *config.Manager
	reg     *providers.Registry
	prompts *prompts.Resolver
	logger  *slog.Logger
	runID   string

	trace *os.File
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadEnv() (*env, error) {
	logger := newLogger()

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}

	reg := providers.NewRegistry()
	reg.SetLogger(logger)

	return &env{
		home:    h,
		cfg:     mgr.Get(),
		mgr:     mgr,
		reg:     reg,
		prompts: prompts.NewResolver(h.PromptsDir(), logger),
		logger:  logger,
		runID:   uuid.New().String(),
	}, nil
}

// Close releases the trace file, if any.
func (e *env) Close() error {
	if e.trace == nil {
		return nil
	}
	err := e.trace.Close()
	e.trace = nil
	return err
}

// traceOption records attempts to --trace when set.
func (e *env) traceOption(pc providers.Config) (recognize.Option, error) {
	if traceFile == "" {
		return nil, nil
	}
	if e.trace == nil {
		f, err := os.OpenFile(traceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		e.trace = f
	}
	temp := pc.Temperature
	rec := llmcall.NewRecorder(e.trace, e.logger)
	return recognize.WithObserver(rec.Observer(llmcall.RecordOptions{
		RunID:       e.runID,
		Provider:    pc.Provider,
		Model:       pc.Model,
		Temperature: &temp,
	})), nil
}

// client builds the request builder, transport and shared options from the
// llm section.
func (e *env) client() (*providers.Builder, providers.Transport, []recognize.Option, error) {
	pc, err := e.cfg.ProviderConfig(e.reg)
	if err != nil {
		return nil, nil, nil, err
	}
	transport, err := providers.NewTransport(pc)
	if err != nil {
		return nil, nil, nil, err
	}
	e.logger.Debug("provider configured",
		"provider", pc.Provider,
		"model", pc.Model,
		"dialect", pc.Dialect,
		"transport", pc.Transport,
	)

	opts := []recognize.Option{
		recognize.WithLogger(e.logger),
		recognize.WithPrompts(e.prompts),
	}
	trace, err := e.traceOption(pc)
	if err != nil {
		return nil, nil, nil, err
	}
	if trace != nil {
		opts = append(opts, trace)
	}
	return providers.NewBuilder(pc), transport, opts, nil
}

func (e *env) recognizer() (*recognize.Recognizer, error) {
	builder, transport, opts, err := e.client()
	if err != nil {
		return nil, err
	}
	return recognize.New(builder, transport, opts...), nil
}

func (e *env) deriver() (*recognize.Deriver, error) {
	builder, transport, opts, err := e.client()
	if err != nil {
		return nil, err
	}
	opts = append(opts, recognize.WithRetries(e.cfg.Recognition.ProfileRetries))
	return recognize.NewDeriver(builder, transport, opts...), nil
}

// loadProfile accepts a file path or the name of a saved profile.
func (e *env) loadProfile(ref string) (*profile.Profile, error) {
	if _, err := os.Stat(ref); err == nil {
		return profile.Load(ref)
	}
	path, err := e.home.ProfilePath(ref)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("profile %q not found (looked for %s)", ref, path)
	}
	return profile.Load(path)
}

// saveProfile writes p to out, or to the named slot when name is set.
// It returns the path written, or "" when neither is set.
func (e *env) saveProfile(p *profile.Profile, name, out string) (string, error) {
	path := out
	if name != "" {
		if err := e.home.EnsureExists(); err != nil {
			return "", err
		}
		var err error
		if path, err = e.home.ProfilePath(name); err != nil {
			return "", err
		}
	}
	if path == "" {
		return "", nil
	}
	if err := profile.Save(path, p); err != nil {
		return "", err
	}
	e.logger.Info("profile saved", "path", path)
	return path, nil
}

// modeFromFlags resolves --headers / --profile into a recognition mode.
func (e *env) modeFromFlags(headers, profileRef string) (recognize.Mode, error) {
	switch {
	case headers != "" && profileRef != "":
		return recognize.Mode{}, fmt.Errorf("--headers and --profile are mutually exclusive")
	case headers != "":
		return recognize.HeadersMode(splitHeaders(headers)), nil
	case profileRef != "":
		p, err := e.loadProfile(profileRef)
		if err != nil {
			return recognize.Mode{}, err
		}
		return recognize.ProfileMode(p), nil
	default:
		return recognize.FreeformMode(), nil
	}
}

func splitHeaders(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
