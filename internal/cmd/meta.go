package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"specsync/internal/spec"
)

var metaFlags struct {
	project  string
	overview string
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Update specification-level metadata",
	RunE:  runMeta,
}

func init() {
	metaCmd.Flags().StringVar(&metaFlags.project, "name", "", "new project name")
	metaCmd.Flags().StringVar(&metaFlags.overview, "overview", "", "new project overview")
	rootCmd.AddCommand(metaCmd)
}

func runMeta(cmd *cobra.Command, args []string) error {
	edit := spec.UpdateMetadata{}
	if cmd.Flags().Changed("name") {
		edit.Project = &metaFlags.project
	}
	if cmd.Flags().Changed("overview") {
		edit.Overview = &metaFlags.overview
	}
	if edit.Project == nil && edit.Overview == nil {
		return fmt.Errorf("no fields to update; set --name or --overview")
	}
	return applyEdit(edit)
}
