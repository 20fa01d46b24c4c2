// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// OutputTable prints the summary and any failed files as an aligned table.
func OutputTable(out io.Writer, s RunSummary) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	fmt.Fprintf(w, "\n=== Captcha Pool Replenish ===\n")
	fmt.Fprintf(w, "Storage:\t%s\n", s.Storage)
	fmt.Fprintf(w, "Duration:\t%s\n", s.Duration)
	fmt.Fprintf(w, "Fill:\t%d\n", s.Fill)
	if s.Skipped {
		fmt.Fprintf(w, "Estimated:\t%d (nothing to do)\n", s.Estimated)
	} else {
		fmt.Fprintf(w, "Estimated:\t%d\n", s.Estimated)
		fmt.Fprintf(w, "Generated:\t%d\n", s.Requested)
		fmt.Fprintf(w, "Stored:\t%d\n", s.Stored)
	}
	if s.DeleteOld {
		fmt.Fprintf(w, "Deleted:\t%d\n", s.Deleted)
	}

	if len(s.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FILE\tERROR")
		fmt.Fprintln(w, "----\t-----")
		for _, f := range s.Failures {
			fmt.Fprintf(w, "%s\t%s\n", f.Path, f.Error)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}

	if s.DeleteFailures > 0 {
		fmt.Fprintf(out, "\n⚠️  %d old captchas could not be deleted\n", s.DeleteFailures)
	}
	fmt.Fprintln(out)
	return nil
}
