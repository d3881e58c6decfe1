package notifier

import (
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"

	"PercentileBoard/internal/display"
	"PercentileBoard/internal/model"
)

// Placeholder is rendered for cells with no value.
const Placeholder = "-"

// FormatCell renders one cell as "NN%", or the placeholder when absent.
// Absent cells are never classified.
func FormatCell(row model.PivotRow, w model.WindowSize) string {
	v, ok := row.Value(w)
	if !ok {
		return Placeholder
	}
	return fmt.Sprintf("%d%%", v)
}

// FormatTableHTML formats a snapshot into a Telegram message.
func FormatTableHTML(snap *model.Snapshot, labeler *display.Labeler) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Price-ratio percentile</b> | %s\n\n", snap.TakenAt.Format("2006-01-02 15:04")))
	if len(snap.Rows) == 0 {
		b.WriteString("No data available.\n")
	}

	for _, row := range snap.Rows {
		b.WriteString(fmt.Sprintf("<b>%s</b> · %s\n", html.EscapeString(labeler.Label(row.Instrument)), html.EscapeString(row.Date)))
		cells := make([]string, 0, len(snap.Windows))
		for _, w := range snap.Windows {
			v, ok := row.Value(w)
			if !ok {
				cells = append(cells, fmt.Sprintf("%s: %s", w, Placeholder))
				continue
			}
			marker := display.BucketMarker(display.Classify(float64(v)))
			cells = append(cells, fmt.Sprintf("%s%s: %d%%", marker, w, v))
		}
		b.WriteString("  " + strings.Join(cells, " | ") + "\n")
	}

	if len(snap.Failures) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d of %d requests missing\n", len(snap.Failures), snap.Requested))
	}
	return b.String()
}

// WriteTableText writes a snapshot as an aligned plain-text table with the
// columns Ticker, Closing Date and one column per window.
func WriteTableText(w io.Writer, snap *model.Snapshot, labeler *display.Labeler) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"Ticker", "Closing Date"}
	for _, win := range snap.Windows {
		header = append(header, win.String())
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range snap.Rows {
		cols := []string{labeler.Label(row.Instrument), row.Date}
		for _, win := range snap.Windows {
			cols = append(cols, FormatCell(row, win))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range snap.Failures {
		if _, err := fmt.Fprintf(w, "missing %s/%d: %s\n", f.Instrument, f.Window, f.Reason); err != nil {
			return err
		}
	}
	return nil
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "Available commands:\n• /table – latest percentile table\n• /refresh – fetch a new table now"
}
