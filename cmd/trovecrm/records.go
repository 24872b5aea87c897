package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robtrove/TroveCRM/client"
	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/listview"
	"github.com/robtrove/TroveCRM/internal/usecase"
)

// records is the per-collection half of the record commands.
type records interface {
	List(ctx context.Context, q listview.Query, w io.Writer) error
	Delete(ctx context.Context, ids []string) (failed int)
}

type recordCommands[T domain.Record] struct {
	store  *client.RemoteStore[T]
	schema domain.Schema
}

func (r recordCommands[T]) List(ctx context.Context, q listview.Query, w io.Writer) error {
	ctl := usecase.NewController[T](r.store.WithQuery(q), r.schema, notifier(os.Stderr), logger)
	defer ctl.Close()
	list, err := ctl.FetchAll(ctx)
	if err != nil {
		return err
	}
	return printTable(w, r.schema, list)
}

func (r recordCommands[T]) Delete(ctx context.Context, ids []string) int {
	ctl := usecase.NewController[T](r.store, r.schema, notifier(os.Stderr), logger)
	defer ctl.Close()
	failed := 0
	for _, o := range ctl.RemoveMany(ctx, ids) {
		if o.Err != nil {
			failed++
		}
	}
	return failed
}

func recordsFor(c *client.Client, collection string) (records, error) {
	schema, ok := domain.SchemaFor(collection)
	if !ok {
		return nil, domain.ValidationError{
			Field:   "collection",
			Message: fmt.Sprintf("unknown collection %q (one of %s)", collection, strings.Join(domain.Collections, ", ")),
		}
	}
	switch collection {
	case domain.CollectionCustomers:
		return recordCommands[domain.Customer]{client.NewRemoteStore[domain.Customer](c, collection), schema}, nil
	case domain.CollectionCampaigns:
		return recordCommands[domain.Campaign]{client.NewRemoteStore[domain.Campaign](c, collection), schema}, nil
	case domain.CollectionDeals:
		return recordCommands[domain.Deal]{client.NewRemoteStore[domain.Deal](c, collection), schema}, nil
	case domain.CollectionTickets:
		return recordCommands[domain.Ticket]{client.NewRemoteStore[domain.Ticket](c, collection), schema}, nil
	default:
		return recordCommands[domain.Article]{client.NewRemoteStore[domain.Article](c, collection), schema}, nil
	}
}

var (
	listSearch string
	listFields []string
	listTags   []string
	listFrom   string
	listTo     string
	listSort   string
)

// queryFlags renders the list flags as table API parameters and validates
// them against the collection schema.
func queryFlags(collection string) (listview.Query, error) {
	schema, ok := domain.SchemaFor(collection)
	if !ok {
		return listview.Query{}, domain.ValidationError{Field: "collection", Message: "unknown collection " + collection}
	}
	v := url.Values{}
	if listSearch != "" {
		v.Set("search", listSearch)
	}
	for _, kv := range listFields {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			return listview.Query{}, domain.ValidationError{Field: kv, Message: "expected field=value"}
		}
		v.Set(k, val)
	}
	if len(listTags) > 0 {
		v.Set("tags", strings.Join(listTags, ","))
	}
	if listFrom != "" {
		v.Set("from", listFrom)
	}
	if listTo != "" {
		v.Set("to", listTo)
	}
	if listSort != "" {
		v.Set("sort", listSort)
	}
	return listview.ParseQuery(v, schema)
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringArrayVarP(&listFields, "field", "f", nil, "categorical filter, e.g. status=active")
	cmd.Flags().StringSliceVar(&listTags, "tags", nil, "records carrying any of these tags")
	cmd.Flags().StringVar(&listFrom, "from", "", "created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&listTo, "to", "", "created on or before (YYYY-MM-DD)")
	cmd.Flags().StringVar(&listSort, "sort", "", "name, amount or date")
}

var listCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List records of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := sessionClient()
		if err != nil {
			return err
		}
		q, err := queryFlags(args[0])
		if err != nil {
			return err
		}
		r, err := recordsFor(c, args[0])
		if err != nil {
			return err
		}
		return r.List(cmd.Context(), q, os.Stdout)
	},
}

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <collection>",
	Short: "Download the filtered records as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := sessionClient()
		if err != nil {
			return err
		}
		q, err := queryFlags(args[0])
		if err != nil {
			return err
		}
		path := exportOutput
		if path == "" {
			path = fmt.Sprintf("%s-%s.csv", args[0], time.Now().Format("2006-01-02"))
		}
		var w io.Writer = os.Stdout
		if path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := c.Export(cmd.Context(), args[0], q.Values(), w); err != nil {
			return err
		}
		if path != "-" {
			colorGreen.Fprintf(os.Stderr, "wrote %s\n", path)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>...",
	Short: "Delete records by id",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := sessionClient()
		if err != nil {
			return err
		}
		r, err := recordsFor(c, args[0])
		if err != nil {
			return err
		}
		if failed := r.Delete(cmd.Context(), args[1:]); failed > 0 {
			return fmt.Errorf("%d of %d deletions failed", failed, len(args)-1)
		}
		return nil
	},
}

var dealCmd = &cobra.Command{
	Use:   "deal",
	Short: "Pipeline operations",
}

var dealMoveCmd = &cobra.Command{
	Use:   "move <id> <stage>",
	Short: "Move a deal to another pipeline stage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := sessionClient()
		if err != nil {
			return err
		}
		deal, err := c.MoveDeal(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		colorGreen.Printf("%s is now %s (%d%%)\n", deal.Title, deal.Stage, deal.Progress)
		return nil
	},
}

var dashboardCurrency string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cc, err := sessionClient()
		if err != nil {
			return err
		}
		currency := dashboardCurrency
		if currency == "" {
			currency = cc.Currency
		}
		d, err := c.Dashboard(cmd.Context(), strings.ToUpper(currency))
		if err != nil {
			return err
		}
		printDashboard(os.Stdout, d)
		return nil
	},
}

func init() {
	addQueryFlags(listCmd)
	addQueryFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file, - for stdout")
	dashboardCmd.Flags().StringVar(&dashboardCurrency, "currency", "", "display currency code")
	dealCmd.AddCommand(dealMoveCmd)
}
