package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-profiles/internal/domain"
	"github.com/naka-gawa/repo-profiles/internal/usecase"
)

var profileCmd = &cobra.Command{
	Use:   "profile <name>",
	Short: "Aggregates one account's repositories and outputs the profile as JSON",
	Long:  `Fetches the named account from every provider, aggregates the repositories, and prints the profile in JSON format.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup(cmd)
		if err != nil {
			return err
		}
		defer l.Sync()

		providers, err := newProviders(cfg, l)
		if err != nil {
			return fmt.Errorf("failed to create provider clients: %w", err)
		}
		defer closeProviders(providers)

		aggregator := usecase.NewAggregator(providers, cfg.Fetch.ProfileTimeout, l)
		profile, err := aggregator.Aggregate(cmd.Context(), args[0])
		switch {
		case errors.Is(err, domain.ErrResourceNotFound):
			return fmt.Errorf("profile %q not found: %w", args[0], err)
		case errors.Is(err, domain.ErrRateLimited):
			return fmt.Errorf("provider rate limit exceeded, try again later: %w", err)
		case err != nil:
			return fmt.Errorf("failed to aggregate profile: %w", err)
		}

		// Marshal the result into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile to JSON: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
