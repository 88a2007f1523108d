// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trifoldproj/trifold/internal/store"
)

// compareCmd prints the stored metrics of a job side by side.
var compareCmd = &cobra.Command{
	Use:   "compare [job]",
	Short: "Print a side-by-side metric table for every stored result of a job",
	Args:  cobra.ExactArgs(1),
	Run:   runCompare,
}

func init() {
	compareCmd.Flags().StringP("db", "d", "trifold.db", "store database")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) {
	dbPath, _ := cmd.Flags().GetString("db")

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	rows, err := db.Compare(context.Background(), args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("no results stored for job %q", args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tSEED\tCONFIDENCE\tPTM\tIPTM\tMAX ERROR\tSTRUCTURE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%.2f\t%s\n",
			r.Tool, r.Seed,
			fmtMetric(r.MeanConfidence), fmtMetric(r.PTM), fmtMetric(r.IPTM),
			r.MaxError, r.StructureRef)
	}
	w.Flush()
}

func fmtMetric(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
