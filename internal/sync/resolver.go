package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/lunchmoney"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

// categoryDescription tags categories created by the sync so their provenance
// is visible in Lunch Money.
const categoryDescription = "Synced from Up Bank"

// assetTypes maps Up account kinds to Lunch Money asset types. Up only
// offers bank accounts today, so everything lands on cash; the table is here
// for when other kinds appear.
var assetTypes = map[string]string{
	upbank.AccountKindSaver:         "cash",
	upbank.AccountKindTransactional: "cash",
}

func assetTypeFor(accountKind string) string {
	if t, ok := assetTypes[accountKind]; ok {
		return t
	}
	return "cash"
}

// TargetAPI is the slice of the Lunch Money client the resolver needs.
type TargetAPI interface {
	ListAssets(ctx context.Context) ([]lunchmoney.Asset, error)
	CreateAsset(ctx context.Context, req lunchmoney.CreateAssetRequest) (int, error)
	ListCategories(ctx context.Context) ([]lunchmoney.Category, error)
	CreateCategory(ctx context.Context, req lunchmoney.CreateCategoryRequest) (int, error)
}

// Resolver looks up or lazily creates Lunch Money entities for Up entities,
// populating the mapping stores on first sight.
type Resolver struct {
	accounts   mappings.Store
	categories mappings.Store
	target     TargetAPI
}

// NewResolver creates a Resolver over the given stores and target API.
func NewResolver(accounts, categories mappings.Store, target TargetAPI) *Resolver {
	return &Resolver{
		accounts:   accounts,
		categories: categories,
		target:     target,
	}
}

// ResolveAccount returns the Lunch Money asset id for an Up account.
//
// Resolution order: existing mapping, exact display-name match against the
// supplied asset snapshot (first match wins; duplicate names are not
// detected), then asset creation. A failed create propagates - the caller
// must never proceed without a mapping.
func (r *Resolver) ResolveAccount(ctx context.Context, acct upbank.Account, existing []lunchmoney.Asset) (string, error) {
	log := logger.FromContext(ctx)

	rec, err := r.accounts.Get(ctx, acct.ID)
	if err != nil {
		return "", fmt.Errorf("resolving account %s: %w", acct.ID, err)
	}
	if rec != nil {
		return rec.TargetID, nil
	}

	name := acct.Attributes.DisplayName
	targetID := ""

	for _, asset := range existing {
		if asset.Name == name {
			log.Info().
				Str("name", name).
				Int("asset_id", asset.ID).
				Msg("Found existing Lunch Money asset")
			targetID = strconv.Itoa(asset.ID)
			break
		}
	}

	if targetID == "" {
		req := lunchmoney.CreateAssetRequest{
			TypeName: assetTypeFor(acct.Attributes.AccountType),
			Name:     name,
			Balance:  balanceOf(acct),
			Currency: "aud",
		}

		log.Info().Str("name", name).Msg("Creating new Lunch Money asset")
		id, err := r.target.CreateAsset(ctx, req)
		if err != nil {
			return "", fmt.Errorf("creating asset for account %s: %w", acct.ID, err)
		}
		targetID = strconv.Itoa(id)
	}

	err = r.accounts.Put(ctx, mappings.Record{
		SourceID:    acct.ID,
		TargetID:    targetID,
		DisplayName: name,
		AccountKind: acct.Attributes.AccountType,
	})
	if err != nil {
		return "", fmt.Errorf("storing account mapping %s: %w", acct.ID, err)
	}

	return targetID, nil
}

// ResolveCategory returns the Lunch Money category id for an Up category.
// Structure mirrors ResolveAccount. The source parent linkage is stored on
// the mapping but no hierarchy is built in Lunch Money: categories stay flat.
func (r *Resolver) ResolveCategory(ctx context.Context, cat upbank.Category, existing []lunchmoney.Category) (string, error) {
	log := logger.FromContext(ctx)

	rec, err := r.categories.Get(ctx, cat.ID)
	if err != nil {
		return "", fmt.Errorf("resolving category %s: %w", cat.ID, err)
	}
	if rec != nil {
		return rec.TargetID, nil
	}

	name := cat.Attributes.Name
	targetID := ""

	for _, category := range existing {
		if category.Name == name {
			log.Info().
				Str("name", name).
				Int("category_id", category.ID).
				Msg("Found existing Lunch Money category")
			targetID = strconv.Itoa(category.ID)
			break
		}
	}

	if targetID == "" {
		req := lunchmoney.CreateCategoryRequest{
			Name:        name,
			Description: categoryDescription,
		}

		log.Info().Str("name", name).Msg("Creating new Lunch Money category")
		id, err := r.target.CreateCategory(ctx, req)
		if err != nil {
			return "", fmt.Errorf("creating category %s: %w", cat.ID, err)
		}
		targetID = strconv.Itoa(id)
	}

	err = r.categories.Put(ctx, mappings.Record{
		SourceID:    cat.ID,
		TargetID:    targetID,
		DisplayName: name,
		ParentID:    cat.ParentID(),
	})
	if err != nil {
		return "", fmt.Errorf("storing category mapping %s: %w", cat.ID, err)
	}

	return targetID, nil
}

func balanceOf(acct upbank.Account) float64 {
	if acct.Attributes.Balance == nil {
		return 0
	}
	d, err := decimal.NewFromString(strings.TrimSpace(acct.Attributes.Balance.Value))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
