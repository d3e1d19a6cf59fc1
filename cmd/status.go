package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/funkysandman/geowise/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Printf("Record Store Status\n")
		fmt.Printf("===================\n")
		fmt.Printf("Records:     %d\n", s.RecordCount())
		fmt.Printf("Extractions: %d\n", s.ExtractionCount())

		printBreakdown("Per-Project Breakdown", s.RecordCountByProject())
		printBreakdown("Per-Category Breakdown", s.RecordCountByCategory())

		return nil
	},
}

func printBreakdown(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	fmt.Printf("\n%s\n", title)
	for range title {
		fmt.Print("-")
	}
	fmt.Println()

	var keys []string
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("  %-30s %4d\n", k, counts[k])
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
