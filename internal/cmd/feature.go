package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"specsync/internal/engine"
	"specsync/internal/planner"
	"specsync/internal/spec"
)

// authorCLI tags change events originating from this process's command line.
const authorCLI = "cli"

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Manage specification features",
}

var (
	featureAddFlags struct {
		id           string
		description  string
		priority     string
		requirements []string
		criteria     []string
		dependsOn    []string
	}

	featureAddCmd = &cobra.Command{
		Use:   "add [name]",
		Short: "Add a feature to the specification",
		Args:  cobra.ExactArgs(1),
		RunE:  runFeatureAdd,
	}
)

var (
	featureUpdateFlags struct {
		name         string
		description  string
		priority     string
		requirements []string
		criteria     []string
		dependsOn    []string
	}

	featureUpdateCmd = &cobra.Command{
		Use:   "update [feature-id]",
		Short: "Update fields of an existing feature",
		Long: `Update one or more fields of an existing feature. Only flags that are
set on the command line are applied; everything else is left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureUpdate,
	}
)

var featureRemoveCmd = &cobra.Command{
	Use:   "remove [feature-id]",
	Short: "Remove a feature from the specification",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeatureRemove,
}

func init() {
	f := featureAddCmd.Flags()
	f.StringVar(&featureAddFlags.id, "id", "", "feature identifier (derived from the name if empty)")
	f.StringVar(&featureAddFlags.description, "description", "", "feature description")
	f.StringVar(&featureAddFlags.priority, "priority", "medium", "priority: low, medium, or high")
	f.StringSliceVar(&featureAddFlags.requirements, "req", nil, "requirement (repeatable)")
	f.StringSliceVar(&featureAddFlags.criteria, "criterion", nil, "acceptance criterion (repeatable)")
	f.StringSliceVar(&featureAddFlags.dependsOn, "depends-on", nil, "feature ID this feature depends on (repeatable)")

	u := featureUpdateCmd.Flags()
	u.StringVar(&featureUpdateFlags.name, "name", "", "new feature name")
	u.StringVar(&featureUpdateFlags.description, "description", "", "new description")
	u.StringVar(&featureUpdateFlags.priority, "priority", "", "new priority: low, medium, or high")
	u.StringSliceVar(&featureUpdateFlags.requirements, "req", nil, "replacement requirements (repeatable)")
	u.StringSliceVar(&featureUpdateFlags.criteria, "criterion", nil, "replacement acceptance criteria (repeatable)")
	u.StringSliceVar(&featureUpdateFlags.dependsOn, "depends-on", nil, "replacement dependency list (repeatable)")

	featureCmd.AddCommand(featureAddCmd)
	featureCmd.AddCommand(featureUpdateCmd)
	featureCmd.AddCommand(featureRemoveCmd)
	rootCmd.AddCommand(featureCmd)
}

func runFeatureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	id := featureAddFlags.id
	if id == "" {
		id = slugify(name)
	}

	edit := spec.AddFeature{
		ID:                 id,
		Name:               name,
		Description:        featureAddFlags.description,
		Priority:           spec.Priority(featureAddFlags.priority),
		Requirements:       featureAddFlags.requirements,
		AcceptanceCriteria: featureAddFlags.criteria,
		DependsOn:          featureAddFlags.dependsOn,
	}

	return applyEdit(edit)
}

func runFeatureUpdate(cmd *cobra.Command, args []string) error {
	edit := spec.UpdateFeature{ID: args[0]}

	flags := cmd.Flags()
	if flags.Changed("name") {
		edit.Name = &featureUpdateFlags.name
	}
	if flags.Changed("description") {
		edit.Description = &featureUpdateFlags.description
	}
	if flags.Changed("priority") {
		p := spec.Priority(featureUpdateFlags.priority)
		edit.Priority = &p
	}
	if flags.Changed("req") {
		edit.Requirements = &featureUpdateFlags.requirements
	}
	if flags.Changed("criterion") {
		edit.AcceptanceCriteria = &featureUpdateFlags.criteria
	}
	if flags.Changed("depends-on") {
		edit.DependsOn = &featureUpdateFlags.dependsOn
	}

	if edit.Name == nil && edit.Description == nil && edit.Priority == nil &&
		edit.Requirements == nil && edit.AcceptanceCriteria == nil && edit.DependsOn == nil {
		return fmt.Errorf("no fields to update; set at least one flag")
	}

	return applyEdit(edit)
}

func runFeatureRemove(cmd *cobra.Command, args []string) error {
	return applyEdit(spec.RemoveFeature{ID: args[0]})
}

// applyEdit routes a structured edit through the controller and reports the
// committed version.
func applyEdit(edit spec.StructuredEdit) error {
	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		ev, err := eng.Controller().Apply(ctx, edit, authorCLI)
		if err != nil {
			return err
		}
		fmt.Printf("Committed version %d (%s)\n", ev.Seq, ev.Kind)
		if len(ev.Affected) > 0 {
			fmt.Printf("Affected: %s\n", strings.Join(ev.Affected, ", "))
		}
		if res, ok := awaitResult(eng, ev.Seq); ok {
			fmt.Printf("Tasks: +%d added, %d cancelled, %d preserved\n",
				res.TasksAdded, res.TasksCancelled, res.TasksPreserved)
		}
		return nil
	})
}

// awaitResult waits for the planner to catch up to the given commit
// sequence. Reconciliation runs on the planner's own goroutine, so the
// result for a just-committed edit may land a beat after Apply returns.
func awaitResult(eng *engine.Engine, seq int) (planner.RegenerationResult, bool) {
	deadline := time.Now().Add(time.Second)
	for {
		if res, ok := eng.Planner().LastResult(); ok && res.SpecSeq >= seq {
			return res, res.SpecSeq == seq
		}
		if time.Now().After(deadline) {
			return planner.RegenerationResult{}, false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// slugify lowercases a feature name and joins its words with hyphens.
func slugify(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "-")
}
