package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"specsync/internal/intent"
	"specsync/internal/spec"
)

var parseApply bool

var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Translate free-form text into a structured edit",
	Long: `Translate a natural-language instruction into a structured edit proposal.
By default the proposal is only printed; pass --apply to commit it through
the controller like any other edit.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseApply, "apply", false, "commit the parsed edit instead of previewing it")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	edit, ok := intent.Parse(args[0])
	if !ok {
		return fmt.Errorf("could not understand %q", args[0])
	}

	fmt.Printf("Proposal: %s\n", describeEdit(edit))
	if !parseApply {
		return nil
	}
	return applyEdit(edit)
}

func describeEdit(edit spec.StructuredEdit) string {
	switch e := edit.(type) {
	case spec.AddFeature:
		return fmt.Sprintf("add feature %q (%s)", e.Name, e.ID)
	case spec.RemoveFeature:
		return fmt.Sprintf("remove feature %s", e.ID)
	case spec.UpdateFeature:
		return fmt.Sprintf("update feature %s", e.ID)
	case spec.UpdateMetadata:
		if e.Project != nil {
			return fmt.Sprintf("rename project to %q", *e.Project)
		}
		return "update project metadata"
	default:
		return fmt.Sprintf("%T", edit)
	}
}
