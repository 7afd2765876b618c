package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/client"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/config"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/filter"
)

var listingsFlags struct {
	make     string
	minPrice float64
	maxPrice float64
	tags     []string
}

var ListingsCmd = &cobra.Command{
	Use:   ListingsCmdName,
	Short: ListingsCmdShort,
	Long:  ListingsCmdLong,
	Args:  cobra.MaximumNArgs(1),
	RunE:  listingsCmdFunc,
}

func init() {
	flags := ListingsCmd.Flags()
	flags.String("api", "", "base URL of the API (default http://localhost:8080)")
	flags.StringVar(&listingsFlags.make, "make", "", "only this make (\"all\" for every make)")
	flags.Float64Var(&listingsFlags.minPrice, "min-price", 0, "lowest monthly lease price")
	flags.Float64Var(&listingsFlags.maxPrice, "max-price", 0, "highest monthly lease price (default: top of the price range)")
	flags.StringSliceVar(&listingsFlags.tags, "tag", nil, "show listings carrying any of these tags")
	_ = settings.BindPFlag(config.KeyAPIBaseURL, flags.Lookup("api"))
}

func listingsCmdFunc(cmd *cobra.Command, args []string) error {
	kind := dal.KindDeal
	if len(args) == 1 {
		k, err := dal.ParseKind(args[0])
		if err != nil {
			return err
		}
		kind = k
	}
	cfg, err := config.Load(settings)
	if err != nil {
		return err
	}

	c := client.New(cfg.API.BaseURL, client.WithLogger(newLogger(cfg)))
	store := client.NewStore(c, kind)
	if _, err := store.LoadListings(cmd.Context()); err != nil {
		return err
	}

	state := store.DefaultFilter().
		WithMake(filter.ParseMakeSelector(listingsFlags.make)).
		WithTags(listingsFlags.tags...)
	price := state.Price
	price.Low = listingsFlags.minPrice
	if cmd.Flags().Changed("max-price") {
		price.High = listingsFlags.maxPrice
	}
	state = state.WithPrice(price)

	return printView(cmd.OutOrStdout(), kind, store.Visible(state))
}

func printView(out io.Writer, kind dal.Kind, view client.View) error {
	switch view.Empty {
	case client.NoListings:
		_, err := fmt.Fprintf(out, "No %s available right now.\n", kind.Collection())
		return err
	case client.FilteredOut:
		_, err := fmt.Fprintf(out, "No %s match the current filters.\n", kind.Collection())
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVEHICLE\tMONTHLY\tTERM\tDUE AT SIGNING\tMILES/YR\tSAVINGS\tTAGS")
	for _, l := range view.Listings {
		badge, _ := l.SavingsBadge()
		fmt.Fprintf(w, "%d\t%s\t%s/mo\t%d mo\t%s\t%d\t%s\t%s\n",
			l.ID, l.Title(), dal.FormatDollars(l.LeasePrice), l.Term,
			dal.FormatDollars(l.DownPayment), l.Mileage, badge, strings.Join(l.Tags, ", "))
	}
	return w.Flush()
}
