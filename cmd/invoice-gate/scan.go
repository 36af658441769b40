package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-gate/internal/ingest"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List the invoice files that run would process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := ingest.ScanDirectory(opts.cfg.Invoices.Dir)
			if err != nil {
				return err
			}
			for _, d := range docs {
				cmd.Printf("%-5s %s\n", d.Kind, d.Name)
			}
			cmd.Printf("%d file(s) in %s\n", len(docs), opts.cfg.Invoices.Dir)
			return nil
		},
	}
}
