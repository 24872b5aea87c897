package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

var (
	colorGreen  = color.New(color.FgGreen)
	colorRed    = color.New(color.FgRed, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorHeader = color.New(color.Bold)
)

// notifier prints controller notifications to stderr.
func notifier(w io.Writer) usecase.Notifier {
	return func(n usecase.Notification) {
		switch n.Level {
		case usecase.LevelSuccess:
			colorGreen.Fprintf(w, "✓ %s\n", n.Message)
		case usecase.LevelError:
			if n.Err != nil {
				colorRed.Fprintf(w, "✗ %s: %v\n", n.Message, n.Err)
			} else {
				colorRed.Fprintf(w, "✗ %s\n", n.Message)
			}
		default:
			fmt.Fprintln(w, n.Message)
		}
	}
}

func printTable[T domain.Record](w io.Writer, schema domain.Schema, records []T) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	colorHeader.Fprintln(tw, "ID\t"+strings.Join(schema.CSVHeader, "\t"))
	for _, r := range records {
		cells := make([]string, 0, len(schema.CSVFields)+1)
		cells = append(cells, r.RecordID())
		for _, f := range schema.CSVFields {
			cells = append(cells, r.Attr(f))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	colorCyan.Fprintf(w, "%d %s\n", len(records), schema.Collection)
	return nil
}

func printDashboard(w io.Writer, d usecase.Dashboard) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	colorHeader.Fprintf(tw, "Dashboard (%s)\n", d.Currency)
	fmt.Fprintf(tw, "Customers\t%d (%d active)\n", d.Customers, d.ActiveCustomers)
	fmt.Fprintf(tw, "Open tickets\t%d\n", d.OpenTickets)
	fmt.Fprintf(tw, "Open deals\t%d\n", d.OpenDeals)
	fmt.Fprintf(tw, "Pipeline value\t%s\n", d.PipelineValueText)
	fmt.Fprintf(tw, "Revenue\t%s\n", d.RevenueText)
	fmt.Fprintf(tw, "Campaign spend\t%s\n", d.CampaignSpentText)
	_ = tw.Flush()
}

func warnf(format string, args ...any) {
	colorYellow.Fprintf(os.Stderr, format+"\n", args...)
}
