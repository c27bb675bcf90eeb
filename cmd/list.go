package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/shopmap/internal/listing"
	"github.com/sells-group/shopmap/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the shops passing the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		minRating, _ := cmd.Flags().GetInt("min-rating")
		groups, _ := cmd.Flags().GetIntSlice("groups")
		search, _ := cmd.Flags().GetString("search")
		grouped, _ := cmd.Flags().GetBool("grouped")

		env, err := initApp(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Ingester.Run(ctx); err != nil {
			return err
		}

		env.Controller.SetFilter(minRating, search)
		if cmd.Flags().Changed("groups") {
			env.Controller.SetGroups(model.NewGroupSet(groups...))
		}

		view := env.Controller.View()
		if len(view) == 0 {
			fmt.Fprintln(os.Stderr, "No shops found.")
			return nil
		}

		out := cmd.OutOrStdout()
		if grouped {
			printGroups(out, env.Controller.Grouped())
			return nil
		}
		printListings(out, view)
		return nil
	},
}

func printListings(out io.Writer, listings []model.Listing) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tRATING\tLAT\tLNG\tCATEGORY")
	fmt.Fprintln(w, "---\t----\t------\t---\t---\t--------")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.5f\t%.5f\t%s\n",
			l.Key(), truncate(l.Name, 40), model.StarsText(l.Rating),
			l.Latitude, l.Longitude, l.Category)
	}
	_ = w.Flush()
}

func printGroups(out io.Writer, groups []listing.Group) {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d)\n", g.Label, len(g.Listings))
		printListings(out, g.Listings)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	listCmd.Flags().Int("min-rating", 0, "minimum star rating (0-5)")
	listCmd.Flags().IntSlice("groups", nil, "rating buckets to show, e.g. 5,4,0 (default all)")
	listCmd.Flags().String("search", "", "case-insensitive text matched against name, category and address")
	listCmd.Flags().Bool("grouped", false, "print shops grouped by rating bucket")
	rootCmd.AddCommand(listCmd)
}
