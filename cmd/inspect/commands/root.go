// Package commands implements the inspect command-line client.
package commands

import (
	"fmt"

	"github.com/doc-inspector/webclient/internal/config"
	"github.com/doc-inspector/webclient/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile     string
	filtersFile string
	endpoint    string
	verbose     bool
	noColor     bool

	cfg     *config.AppConfig
	catalog *config.FilterCatalog
	logger  zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Send documents to the inspection service and save the annotated image",
		Long: `inspect uploads a document to the detection service, asks it to look for
the selected classes (signatures, stamps, QR codes, text) and saves the image
it returns with the findings drawn on it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "XML config file path")
	rootCmd.PersistentFlags().StringVar(&opts.filtersFile, "filters-file", "", "YAML filter catalog (overrides the config)")
	rootCmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "inspection endpoint URL (overrides the config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newFiltersCmd(opts))

	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// load resolves configuration shared by every subcommand.
func (o *rootOptions) load(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()

	if o.cfgFile != "" {
		cfg, err := config.LoadConfig(o.cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.cfg = cfg
	} else {
		o.cfg = config.FromEnvironment()
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	o.logger = logging.New(logging.Config{
		Level:   level,
		Format:  "console",
		Output:  cmd.ErrOrStderr(),
		Service: "inspect-cli",
	})

	filtersFile := o.cfg.Inspect.FiltersFile
	if o.filtersFile != "" {
		filtersFile = o.filtersFile
	}
	catalog, err := config.LoadFilterCatalog(filtersFile)
	if err != nil {
		return fmt.Errorf("load filter catalog: %w", err)
	}
	o.catalog = catalog

	return nil
}

// inspectEndpoint returns the flag override or the configured endpoint.
func (o *rootOptions) inspectEndpoint() string {
	if o.endpoint != "" {
		return o.endpoint
	}
	return o.cfg.InspectEndpoint()
}
