package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"specsync/internal/engine"
	"specsync/internal/event"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the store document and mirror external edits",
	Long: `Run the engine in the foreground with the file watcher enabled. Manual
edits to the specification document are detected, debounced, and applied
through the controller; each resulting change event is printed as it is
committed. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withEngineWatch(true, func(ctx context.Context, eng *engine.Engine) error {
		sub := eng.Controller().Subscribe(event.Func(func(e event.ChangeEvent) {
			fmt.Printf("[%d] %s by %s: %v\n", e.Seq, e.Kind, e.Author, e.Affected)
		}))
		defer eng.Controller().Unsubscribe(sub)

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", eng.Controller().Current().Project)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case <-sig:
		case <-ctx.Done():
		}
		fmt.Println("\nShutting down.")
		return nil
	})
}
