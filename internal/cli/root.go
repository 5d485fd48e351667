package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitebots/internal/app"
	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/report"
	"github.com/raysh454/sitebots/internal/webclient"
)

// Version can be set at build time using ldflags
var Version = "dev"

// Option customises the command tree, mostly for tests.
type Option func(*runtime)

// WithWebClient makes every command use wc instead of building a client
// from configuration. The caller keeps ownership of wc.
func WithWebClient(wc webclient.WebClient) Option {
	return func(rt *runtime) { rt.webClient = wc }
}

// WithAppOptions forwards orchestrator options to every command.
func WithAppOptions(opts ...app.Option) Option {
	return func(rt *runtime) { rt.appOptions = append(rt.appOptions, opts...) }
}

type runtime struct {
	webClient  webclient.WebClient
	appOptions []app.Option
}

// loadConfig reads --config and builds the logger the commands share.
// Logs go to stderr so stdout stays clean for reports.
func (rt *runtime) loadConfig(cmd *cobra.Command) (*app.Config, logging.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := logging.ParseLevel(cfg.Log.Level)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logging.LevelDebug
	}
	return cfg, logging.NewLogger("cli", level, cmd.ErrOrStderr()), nil
}

// webClientFor returns the injected client, or a new one the caller must close.
func (rt *runtime) webClientFor(cfg *app.Config, logger logging.Logger) (webclient.WebClient, func(), error) {
	if rt.webClient != nil {
		return rt.webClient, func() {}, nil
	}
	wc, err := webclient.NewWebClient(cfg.WebClient, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create web client: %w", err)
	}
	return wc, func() {
		if err := wc.Close(); err != nil {
			logger.Warn("closing webclient", logging.Err(err))
		}
	}, nil
}

// NewRootCmd builds the sitebots command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	rt := &runtime{}
	for _, opt := range opts {
		opt(rt)
	}

	rootCmd := &cobra.Command{
		Use:   "sitebots",
		Short: "Run six concurrent SEO bots against a website",
		Long: `sitebots fetches a page and runs six analysis bots over it in parallel:
technical SEO, content, performance, mobile, security and accessibility.

Each bot scores its category; the report combines the six scores into an
overall score and a prioritised list of recommendations.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is .sitebots.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newAnalyzeCmd(rt), newServeCmd(rt), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitebots version %s\n", Version)
		},
	}
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func colorEnabled(cmd *cobra.Command, out io.Writer) bool {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		return false
	}
	f, ok := out.(*os.File)
	return ok && f == os.Stdout && report.IsTerminal()
}
