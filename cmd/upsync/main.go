// Command upsync runs the one-shot reconciliation jobs that populate the
// account and category mapping store. The jobs are idempotent and intended
// for an initial backfill plus periodic (e.g. daily) re-runs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/config"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/lunchmoney"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings/sqlite"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/secrets"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/sync"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "upsync",
		Short:        "Sync Up Bank accounts and categories to Lunch Money",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(syncAccountsCmd(), syncCategoriesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func syncAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-accounts",
		Short: "Ensure every Up account has a Lunch Money asset mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), "accounts", func(ctx context.Context, s *sync.Syncer) (sync.Result, error) {
				return s.SyncAccounts(ctx)
			})
		},
	}
}

func syncCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-categories",
		Short: "Ensure every Up category has a Lunch Money category mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), "categories", func(ctx context.Context, s *sync.Syncer) (sync.Result, error) {
				return s.SyncCategories(ctx)
			})
		},
	}
}

func runSync(ctx context.Context, what string, run func(context.Context, *sync.Syncer) (sync.Result, error)) error {
	_ = godotenv.Load()

	log := logger.New()
	ctx = logger.WithContext(ctx, log)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	provider := secrets.EnvProvider{}
	upToken, err := provider.GetSecret(ctx, cfg.UpAPIToken)
	if err != nil {
		return fmt.Errorf("resolving Up API token: %w", err)
	}
	lmToken, err := provider.GetSecret(ctx, cfg.LunchMoneyAPIToken)
	if err != nil {
		return fmt.Errorf("resolving Lunch Money API token: %w", err)
	}

	db, err := sqlite.Open(cfg.MappingDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	syncer := sync.NewSyncer(
		upbank.NewClient(upToken),
		lunchmoney.NewClient(lmToken),
		sqlite.NewStore(db, sqlite.SpaceAccounts),
		sqlite.NewStore(db, sqlite.SpaceCategories),
	)

	result, err := run(ctx, syncer)
	if err != nil {
		return err
	}

	log.Info().
		Int("synced", result.Synced).
		Int("total", result.Total).
		Msgf("Successfully synced %d of %d %s", result.Synced, result.Total, what)
	return nil
}
