package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/tastinglog"
)

// printer handles table or JSON output.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string) *printer {
	return &printer{format: format, w: os.Stdout}
}

// json marshals v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes rows using tabwriter. header is the first row.
// rows is a slice of slices; each inner slice is a row of strings.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// kv prints a key-value detail view.
func (p *printer) kv(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, pair := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1])
	}
	_ = tw.Flush()
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}

// formatABV renders an ABV percentage, "-" when unknown.
func formatABV(abv float64) string {
	if abv == 0 {
		return "-"
	}
	return strconv.FormatFloat(abv, 'f', 1, 64) + "%"
}

// availabilityLabel renders availability for tables.
func availabilityLabel(a catalog.Availability) string {
	switch a {
	case catalog.AvailabilityNotYet:
		return "not yet"
	case catalog.AvailabilityUnknown:
		return "-"
	default:
		return string(a)
	}
}

// logMark summarizes a tasting-log entry in one table cell: blank for
// drinks not on the log, "want" for untasted entries, and the try count
// once tasted.
func logMark(it tastinglog.Item) string {
	switch {
	case it.DrinkID == "":
		return ""
	case it.Tasted():
		return fmt.Sprintf("tasted x%d", len(it.Tries))
	default:
		return "want"
	}
}

// formatTime renders a timestamp in local time, "-" when zero.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
