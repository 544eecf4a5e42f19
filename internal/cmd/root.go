// Package cmd implements the specsync command-line interface. The CLI is
// a thin shell over the engine: every mutation it performs goes through
// the controller's apply path like any other channel.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"specsync/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "specsync",
	Short: "Specification-to-execution synchronization engine",
	Long: `Specsync keeps a project specification as a single source of truth and
incrementally regenerates a dependency-ordered task graph whenever the
specification changes, without discarding completed or in-flight work.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/specsync/config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "specification document path (overrides store.path)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SPECSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
