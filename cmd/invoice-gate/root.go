package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
)

type rootOptions struct {
	configPath string
	dir        string
	cfg        *common.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "invoice-gate",
		Short: "Extract and validate invoice fields from PDFs and scans",
		Long: `invoice-gate reads invoice PDFs and images, asks a language model for
the date, vendor, net, tax and total, and checks that net + tax matches the
total. Matching invoices are appended to the approved sink; the rest go to
the review log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if opts.dir != "" {
				cfg.Invoices.Dir = opts.dir
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			opts.cfg = cfg
			opts.logger = common.NewLogger(cfg.Log, os.Stderr)
			slog.SetDefault(opts.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./invoice-gate.yaml if present)")
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "invoice directory (overrides invoices.dir)")

	root.AddCommand(
		newScanCmd(opts),
		newRunCmd(opts),
		newWatchCmd(opts),
		newExtractCmd(opts),
	)
	return root
}
