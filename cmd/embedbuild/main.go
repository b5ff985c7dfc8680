package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"chronoscope-go/internal/builder"
	"chronoscope-go/internal/config"
	"chronoscope-go/internal/embedding"
	"chronoscope-go/internal/filter"
	"chronoscope-go/internal/snapshot"
)

type buildOptions struct {
	configPath string
	manifest   string
	dir        string
	output     string
	format     string
	provider   string
	dim        int
	workers    int
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "embedbuild",
		Short: "Build the landmark snapshot from labelled reference photos",
		Long: `Embed every reference photo with the configured model and write the
landmark snapshot loaded by the server.

Photos come either from a CSV manifest of "path,landmark" rows or from a
directory laid out as <dir>/<Landmark Name>/<image>.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "TOML configuration providing the [model] section")
	flags.StringVar(&opts.manifest, "manifest", "", "CSV manifest of path,landmark rows")
	flags.StringVar(&opts.dir, "dir", "", "directory of <Landmark Name>/<image> files")
	flags.StringVarP(&opts.output, "output", "o", "", "snapshot path (defaults to [catalog] snapshot_path)")
	flags.StringVar(&opts.format, "format", snapshot.EncoderBinary, "snapshot encoding: binary or json")
	flags.StringVar(&opts.provider, "provider", "", "override the model provider")
	flags.IntVar(&opts.dim, "dim", 0, "override the embedding dimension")
	flags.IntVar(&opts.workers, "workers", 0, "concurrent embeddings (0 means GOMAXPROCS)")
	cmd.MarkFlagsMutuallyExclusive("manifest", "dir")
	cmd.MarkFlagsOneRequired("manifest", "dir")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if opts.provider != "" {
		cfg.Model.Provider = opts.provider
	}
	if opts.dim > 0 {
		cfg.Model.Dim = opts.dim
	}
	output := opts.output
	if output == "" {
		output = cfg.Catalog.SnapshotPath
	}

	encoder, err := snapshot.EncoderFactory(opts.format)
	if err != nil {
		return err
	}

	items, err := loadItems(opts)
	if err != nil {
		return err
	}

	model, err := embedding.Load(cmd.Context(), cfg.EmbeddingConfig())
	if err != nil {
		return err
	}

	catalog, report, err := builder.New(model, opts.workers).Build(cmd.Context(), items)
	if err != nil {
		if errors.Is(err, builder.ErrEmptyBatch) && report != nil {
			return fmt.Errorf("%w: all %d images were skipped", err, report.Total)
		}
		return err
	}

	if err := snapshot.Save(output, catalog, encoder); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d embeddings (%d landmarks, %d skipped) to %s\n",
		report.Embedded, filter.NewNameIndex(catalog.Names()).Distinct(), len(report.Skipped), output)
	return nil
}

func loadItems(opts *buildOptions) ([]builder.Item, error) {
	if opts.manifest != "" {
		return builder.ReadManifestFile(opts.manifest)
	}
	return builder.ScanDir(opts.dir)
}
