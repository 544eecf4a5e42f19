package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"specsync/internal/engine"
	"specsync/internal/util"
)

var tasksFeature string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect the generated task graph",
	RunE:  runTasks,
}

var tasksStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Mark a task as in progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksStart,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

var tasksReadyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List tasks whose dependencies are all completed",
	RunE:  runTasksReady,
}

func init() {
	tasksCmd.Flags().StringVar(&tasksFeature, "feature", "", "limit to tasks of one feature")
	tasksCmd.AddCommand(tasksStartCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksReadyCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		tasks := eng.Planner().Snapshot()
		if tasksFeature != "" {
			tasks = eng.Planner().FeatureTasks(tasksFeature)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, t := range tasks {
			fmt.Printf("%-12s %-11s %-20s %s\n", t.ID, t.Status, t.FeatureID, util.TruncateString(t.Title, 72))
			if len(t.DependsOn) > 0 {
				fmt.Printf("%-12s             needs %s\n", "", strings.Join(t.DependsOn, ", "))
			}
			if len(t.Backlog) > 0 {
				fmt.Printf("%-12s             backlog: %s\n", "", strings.Join(t.Backlog, "; "))
			}
		}
		return nil
	})
}

func runTasksStart(cmd *cobra.Command, args []string) error {
	return transitionTask(args[0], true)
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	return transitionTask(args[0], false)
}

func transitionTask(taskID string, start bool) error {
	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		var err error
		if start {
			err = eng.Planner().MarkInProgress(taskID)
		} else {
			err = eng.Planner().MarkCompleted(taskID)
		}
		if err != nil {
			return err
		}
		t, _ := eng.Planner().Task(taskID)
		fmt.Printf("%s is now %s\n", t.ID, t.Status)
		return nil
	})
}

func runTasksReady(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		res, ok := eng.Planner().LastResult()
		if !ok || len(res.ReadyQueue) == 0 {
			fmt.Println("No tasks ready.")
			return nil
		}
		for _, id := range res.ReadyQueue {
			if t, ok := eng.Planner().Task(id); ok {
				fmt.Printf("%-12s %-20s %s\n", t.ID, t.FeatureID, util.TruncateString(t.Title, 72))
			}
		}
		return nil
	})
}
