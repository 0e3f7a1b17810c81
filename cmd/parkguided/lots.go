package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"parking-guide-backend/internal/model"
	"parking-guide-backend/internal/quicksearch"
)

var lotsCmd = &cobra.Command{
	Use:   "lots",
	Short: "List the lot catalog with eligibility and prediction keys",
	RunE:  listLots,
}

func init() {
	rootCmd.AddCommand(lotsCmd)
}

func listLots(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg, nil, zerolog.Nop())
	if err != nil {
		return err
	}

	lots, err := eng.catalog.Lots(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOT\tLOCATION\tZONE TYPE\tELIGIBLE\tKEY")
	for _, l := range lots {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n",
			l.LotNumber, l.DisplayLocation(), l.ZoneType, quicksearch.Eligible(l), model.ResolveKey(l, eng.scheme))
	}
	return tw.Flush()
}
