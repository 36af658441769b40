package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-gate/constants"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
	"github.com/joseph-ayodele/invoice-gate/internal/ingest"
	"github.com/joseph-ayodele/invoice-gate/internal/pipeline"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every invoice in the directory once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			docs, err := ingest.ScanDirectory(opts.cfg.Invoices.Dir)
			if err != nil {
				return err
			}

			a, err := buildApp(ctx, opts.cfg, nil, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close(opts.logger)

			out := cmd.OutOrStdout()
			sum := a.processor.Run(ctx, docs, func(o entity.Outcome) { reportOutcome(out, o) })
			printSummary(out, sum)
			return ctx.Err()
		},
	}
}

// reportOutcome prints one line per document.
func reportOutcome(w io.Writer, o entity.Outcome) {
	switch o.Status {
	case constants.DocStatusApproved:
		fmt.Fprintf(w, "%s: approved (%s, %s, total %s)\n",
			o.Document.Name, displayOr(o.Record.VendorName, "unknown vendor"),
			displayOr(o.Record.InvoiceDate, "no date"), o.Record.TotalAmount.StringFixed(2))
	case constants.DocStatusFlagged:
		fmt.Fprintf(w, "%s: flagged, calculated %s vs total %s\n",
			o.Document.Name, o.Validation.Calculated.StringFixed(2), o.Validation.Total.StringFixed(2))
	case constants.DocStatusParseFailed:
		fmt.Fprintf(w, "%s: no data after %d attempt(s)\n", o.Document.Name, o.Attempts)
	default:
		fmt.Fprintf(w, "%s: %s: %s\n", o.Document.Name, o.Status, o.ErrorMessage())
	}
}

func printSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintf(w, "\n%d processed: %d approved, %d flagged, %d failed (parse %d, extract %d, route %d) in %s\n",
		s.Total, s.Approved, s.Flagged, s.Failed(), s.ParseFailed, s.ExtractFailed, s.RouteFailed, s.Elapsed.Round(time.Millisecond))
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
