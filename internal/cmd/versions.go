package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"specsync/internal/engine"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List retained specification versions, newest first",
	RunE:  runVersions,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [version-index]",
	Short: "Restore a historical specification version",
	Long: `Restore the snapshot recorded at the given version index. The restore
is committed as a fresh version on top of the history; nothing is rewound
or erased.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(rollbackCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		entries := eng.Controller().Versions()
		if len(entries) == 0 {
			fmt.Println("No versions recorded yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%4d  %s  %-10s %s\n",
				e.Index, e.Timestamp.Format("2006-01-02 15:04:05"), e.Author, e.Summary)
		}
		return nil
	})
}

func runRollback(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version index %q: %w", args[0], err)
	}

	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		ev, err := eng.Controller().Rollback(ctx, index, authorCLI)
		if err != nil {
			return err
		}
		fmt.Printf("Restored version %d as version %d\n", index, ev.Seq)
		return nil
	})
}
