// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/repo-profiles/internal/config"
	"github.com/naka-gawa/repo-profiles/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "repo-profiles",
	Short: "Summarizes an account's repositories across GitHub and Bitbucket.",
	Long: `repo-profiles merges the repositories an account owns on GitHub and Bitbucket
into one profile: owned and forked counts, total watchers, topics and a
language histogram. Run it as an HTTP service with "serve" or look up a single
profile with "profile".`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional file of KEY=value pairs loaded before the environment is read")
}

// setup loads the configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.IsDev(), verbose), nil
}
