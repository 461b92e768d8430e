package dispenser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -destination=../mocks/mock_repository.go -package=mocks account-dispenser/internal/dispenser Repository

// Repository gives access to the single persisted document. Update must run fn and
// persist the result as one atomic unit, and must not persist anything when fn fails.
type Repository interface {
	View(ctx context.Context, fn func(doc *Document) error) error
	Update(ctx context.Context, fn func(doc *Document) error) error
}

type Service struct {
	repo     Repository
	cooldown CooldownPolicy
	now      func() time.Time
}

func NewService(repo Repository, cooldown CooldownPolicy) *Service {
	return &Service{
		repo:     repo,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	var status Status
	err := s.repo.View(ctx, func(doc *Document) error {
		status = Status{
			Online:         true,
			FreeStock:      len(doc.FreeStock),
			PaidStock:      len(doc.PaidStock),
			TotalGenerated: len(doc.Used),
		}
		return nil
	})
	if err != nil {
		return Status{}, fmt.Errorf("load status: %w", err)
	}

	return status, nil
}

// Dispense hands the oldest account of the requested pool to address. The cooldown
// check, the removal, the usage record and the cooldown mark commit together.
func (s *Service) Dispense(ctx context.Context, poolType, address string) (Account, error) {
	pool, err := ParsePool(poolType)
	if err != nil {
		return nil, err
	}

	var account Account
	err = s.repo.Update(ctx, func(doc *Document) error {
		now := s.now()
		if !s.cooldown.Ready(doc, address, pool, now) {
			return ErrCooldownActive{Until: s.cooldown.Until(doc, address, pool)}
		}

		stock := doc.stock(pool)
		if len(*stock) == 0 {
			return ErrOutOfStock
		}

		account = (*stock)[0]
		*stock = (*stock)[1:]

		doc.Used = append(doc.Used, UsageRecord{
			Account: account,
			IP:      address,
			Type:    pool,
			Time:    formatUsageTime(now),
		})
		s.cooldown.Mark(doc, address, pool, now)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispense %s: %w", pool, err)
	}

	return account, nil
}

// Reset replaces both pools and clears usage history and cooldowns.
func (s *Service) Reset(ctx context.Context, freeStock, paidStock json.RawMessage) (ResetResult, error) {
	free, droppedFree := FilterAccounts(freeStock)
	paid, droppedPaid := FilterAccounts(paidStock)

	err := s.repo.Update(ctx, func(doc *Document) error {
		doc.FreeStock = free
		doc.PaidStock = paid
		doc.Used = []UsageRecord{}
		doc.Cooldowns = map[string]Cooldown{}
		return nil
	})
	if err != nil {
		return ResetResult{}, fmt.Errorf("reset pools: %w", err)
	}

	return ResetResult{
		FreeStock:   len(free),
		PaidStock:   len(paid),
		DroppedFree: droppedFree,
		DroppedPaid: droppedPaid,
	}, nil
}

// Snapshot returns a deep copy of the stored document.
func (s *Service) Snapshot(ctx context.Context) (*Document, error) {
	var snapshot *Document
	err := s.repo.View(ctx, func(doc *Document) error {
		encoded, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		snapshot, err = DecodeDocument(encoded)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return snapshot, nil
}

// PruneCooldowns removes cooldown entries that no longer gate anything.
func (s *Service) PruneCooldowns(ctx context.Context) (int, error) {
	var pruned int
	err := s.repo.Update(ctx, func(doc *Document) error {
		pruned = s.cooldown.Prune(doc, s.now())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune cooldowns: %w", err)
	}

	return pruned, nil
}
