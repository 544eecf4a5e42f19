package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"specsync/internal/engine"
)

var initCmd = &cobra.Command{
	Use:   "init [project name]",
	Short: "Initialize an empty specification document",
	Long: `Initialize a new specification store for a project. If the document
already exists the command fails rather than overwrite it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.PersistentFlags().String("project", "", "project name used when the store is created")
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

// projectName resolves the project name for store initialization: explicit
// flag first, then the working directory's base name.
func projectName() string {
	if name := viper.GetString("project"); name != "" {
		return name
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "untitled"
	}
	return filepath.Base(cwd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		viper.Set("project", args[0])
	}

	if path := viper.GetString("store.path"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("specification already exists at %s", path)
		}
	}

	return withEngine(func(ctx context.Context, eng *engine.Engine) error {
		cur := eng.Controller().Current()
		fmt.Printf("Initialized specification for %q\n", cur.Project)
		fmt.Printf("Store: %s\n", viper.GetString("store.path"))
		return nil
	})
}
