// Package sync reconciles Up Bank accounts and categories with Lunch Money,
// populating the mapping stores the transaction path reads from. Both jobs
// are idempotent and designed for periodic re-invocation.
package sync

import (
	"context"
	"fmt"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

// SourceAPI is the slice of the Up client the sync jobs need.
type SourceAPI interface {
	ListAccounts(ctx context.Context) ([]upbank.Account, error)
	ListCategories(ctx context.Context) ([]upbank.Category, error)
}

// Result reports how many source entities ended up mapped out of the total
// enumerated.
type Result struct {
	Synced int
	Total  int
}

// Syncer runs the account and category sync jobs.
type Syncer struct {
	source     SourceAPI
	target     TargetAPI
	accounts   mappings.Store
	categories mappings.Store
	resolver   *Resolver
}

// NewSyncer creates a Syncer over the given clients and stores.
func NewSyncer(source SourceAPI, target TargetAPI, accounts, categories mappings.Store) *Syncer {
	return &Syncer{
		source:     source,
		target:     target,
		accounts:   accounts,
		categories: categories,
		resolver:   NewResolver(accounts, categories, target),
	}
}

// SyncAccounts enumerates all Up accounts and ensures each has an asset
// mapping. Accounts that are already mapped are counted and skipped, so
// re-running against unchanged state performs no create calls. Per-account
// failures are logged and skipped; only enumeration failures abort the run.
func (s *Syncer) SyncAccounts(ctx context.Context) (Result, error) {
	log := logger.FromContext(ctx)

	log.Info().Msg("Fetching accounts from Up Bank")
	accounts, err := s.source.ListAccounts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing Up accounts: %w", err)
	}
	log.Info().Int("count", len(accounts)).Msg("Fetched Up accounts")

	log.Info().Msg("Fetching existing assets from Lunch Money")
	existing, err := s.target.ListAssets(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing Lunch Money assets: %w", err)
	}
	log.Info().Int("count", len(existing)).Msg("Fetched Lunch Money assets")

	result := Result{Total: len(accounts)}

	for _, acct := range accounts {
		rec, err := s.accounts.Get(ctx, acct.ID)
		if err != nil {
			log.Error().Err(err).Str("up_account_id", acct.ID).Msg("Mapping lookup failed, skipping account")
			continue
		}
		if rec != nil {
			log.Info().
				Str("up_account_id", acct.ID).
				Str("lunchmoney_id", rec.TargetID).
				Msg("Account already mapped")
			result.Synced++
			continue
		}

		targetID, err := s.resolver.ResolveAccount(ctx, acct, existing)
		if err != nil {
			log.Error().Err(err).Str("up_account_id", acct.ID).Msg("Failed to sync account")
			continue
		}

		log.Info().
			Str("up_account_id", acct.ID).
			Str("lunchmoney_id", targetID).
			Str("name", acct.Attributes.DisplayName).
			Msg("Synced account")
		result.Synced++
	}

	return result, nil
}

// SyncCategories is the category counterpart of SyncAccounts.
func (s *Syncer) SyncCategories(ctx context.Context) (Result, error) {
	log := logger.FromContext(ctx)

	log.Info().Msg("Fetching categories from Up Bank")
	categories, err := s.source.ListCategories(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing Up categories: %w", err)
	}
	log.Info().Int("count", len(categories)).Msg("Fetched Up categories")

	log.Info().Msg("Fetching existing categories from Lunch Money")
	existing, err := s.target.ListCategories(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing Lunch Money categories: %w", err)
	}
	log.Info().Int("count", len(existing)).Msg("Fetched Lunch Money categories")

	result := Result{Total: len(categories)}

	for _, cat := range categories {
		rec, err := s.categories.Get(ctx, cat.ID)
		if err != nil {
			log.Error().Err(err).Str("up_category_id", cat.ID).Msg("Mapping lookup failed, skipping category")
			continue
		}
		if rec != nil {
			log.Info().
				Str("up_category_id", cat.ID).
				Str("lunchmoney_id", rec.TargetID).
				Msg("Category already mapped")
			result.Synced++
			continue
		}

		targetID, err := s.resolver.ResolveCategory(ctx, cat, existing)
		if err != nil {
			log.Error().Err(err).Str("up_category_id", cat.ID).Msg("Failed to sync category")
			continue
		}

		log.Info().
			Str("up_category_id", cat.ID).
			Str("lunchmoney_id", targetID).
			Str("name", cat.Attributes.Name).
			Msg("Synced category")
		result.Synced++
	}

	return result, nil
}
