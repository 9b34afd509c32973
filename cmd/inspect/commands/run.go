package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/doc-inspector/webclient/internal/controller"
	"github.com/doc-inspector/webclient/internal/inspect"
	"github.com/doc-inspector/webclient/internal/logging"
	"github.com/doc-inspector/webclient/internal/storage"
	"github.com/doc-inspector/webclient/internal/terminal"
	"github.com/spf13/cobra"
)

type runOptions struct {
	*rootOptions
	find    []string
	output  string
	timeout time.Duration
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Inspect a document and save the annotated image",
		Long: `Uploads FILE to the inspection service and writes the returned image.
Without --find the catalog's default filters are used.`,
		Example: `  inspect run contract.pdf
  inspect run scan.jpg --find Signature --find stamp -o result.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.find, "find", "f", nil, "filter id to look for (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output image path (default FILE.inspected.png)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "give up after this long (0 waits for the model)")

	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, path string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	file, err := terminal.ReadFile(path)
	if err != nil {
		return err
	}

	toggles, err := terminal.Checkboxes(o.catalog, o.find)
	if err != nil {
		return err
	}

	client, err := inspect.NewClient(o.inspectEndpoint(),
		inspect.WithLogger(logging.Component(o.logger, "inspect")))
	if err != nil {
		return err
	}

	output := o.output
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".inspected.png"
	}

	objects := storage.NewObjectStore("mem://")
	status := terminal.NewStatusLine(cmd.OutOrStdout(), o.noColor)
	defer status.Stop()
	image := terminal.NewImageFile(output, objects)

	ctrl := controller.New(controller.Handles{
		File:    terminal.NewFileSource(file),
		Trigger: &terminal.Button{},
		Status:  status,
		Image:   image,
		Filters: toggles,
	}, client, objects, logging.Component(o.logger, "controller"))

	status.Info("%s (%d bytes) -> %s", file.Name, file.Size(), client.Endpoint())

	if err := ctrl.Submit(ctx); err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	status.Info("saved %s", image.Path())
	return nil
}
