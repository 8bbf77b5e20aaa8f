package service

import (
	"context"

	"gorm.io/gorm"

	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	ledgerdomain "github.com/smallbiznis/leadflow/internal/ledger/domain"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
	"github.com/smallbiznis/leadflow/pkg/db"
)

// receipt is the post-commit record of one successful assignment+charge.
// Side effects (audit, notification) read from here, never from inside the
// transaction.
type receipt struct {
	assignment    distributiondomain.Assignment
	newBalance    int64
	providerName  string
	providerEmail string
}

// assignAndCharge atomically assigns the lead to the picked provider and
// debits the level price. The provider row lock makes the balance check and
// debit one unit; the unique assignment index turns a lost race into
// ErrDuplicateAssignment. Everything commits or nothing does.
func (s *Service) assignAndCharge(
	ctx context.Context,
	lead *leaddomain.Lead,
	pick subscriptiondomain.Pick,
	level nichedomain.CompetitionLevel,
) (*receipt, error) {
	var rec receipt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		provider, err := s.providerRepo.FindByIDForUpdate(ctx, tx, pick.ProviderID)
		if err != nil {
			return err
		}

		if provider.Balance < level.PricePerLead {
			return distributiondomain.ErrInsufficientBalance
		}
		newBalance := provider.Balance - level.PricePerLead

		now := s.clock.Now()
		if err := s.ledgerRepo.Insert(ctx, tx, &ledgerdomain.LedgerEntry{
			ID:             s.genID.Generate(),
			ProviderID:     provider.ID,
			EntryType:      ledgerdomain.EntryTypeLeadPurchase,
			Amount:         level.PricePerLead,
			BalanceAfter:   newBalance,
			LeadID:         lead.ID,
			SubscriptionID: pick.SubscriptionID,
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		if err := s.providerRepo.UpdateBalance(ctx, tx, provider.ID, newBalance); err != nil {
			return err
		}

		assignment := distributiondomain.Assignment{
			ID:             s.genID.Generate(),
			LeadID:         lead.ID,
			ProviderID:     provider.ID,
			SubscriptionID: pick.SubscriptionID,
			LevelID:        level.ID,
			PriceCharged:   level.PricePerLead,
			CreatedAt:      now,
		}
		if err := s.assignRepo.Insert(ctx, tx, &assignment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return distributiondomain.ErrDuplicateAssignment
			}
			return err
		}

		if err := s.subRepo.TouchLastServed(ctx, tx, pick.SubscriptionID, now); err != nil {
			return err
		}

		rec = receipt{
			assignment:    assignment,
			newBalance:    newBalance,
			providerName:  provider.Name,
			providerEmail: provider.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
