package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"specsync/internal/engine"
	"specsync/internal/util"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current specification",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the raw specification document")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		cur := eng.Controller().Current()

		if showJSON {
			data, err := json.MarshalIndent(cur, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode specification: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Project: %s\n", cur.Project)
		if cur.Overview != "" {
			fmt.Printf("Overview: %s\n", util.TruncateString(cur.Overview, 100))
		}
		fmt.Printf("Features: %d\n", len(cur.Features))
		for _, id := range cur.FeatureIDs() {
			f := cur.Features[id]
			fmt.Printf("  %-24s %-8s %s\n", f.ID, f.Priority, util.TruncateString(f.Name, 60))
			if len(f.DependsOn) > 0 {
				fmt.Printf("  %-24s depends on %s\n", "", strings.Join(f.DependsOn, ", "))
			}
		}
		return nil
	})
}
