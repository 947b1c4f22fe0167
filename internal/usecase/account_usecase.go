package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Identity    string
	DisplayName string
}

// CreateAccount opens an account with a zero balance for the caller.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.Identity == "" {
		return nil, domain.ErrUnauthorized
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if err := domain.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Identity:    input.Identity,
		DisplayName: displayName,
		Balance:     0,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
			return err
		}

		return emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
			domain.AggregateTypeAccount, account.Identity, domain.EventTypeAccountCreated,
			map[string]any{
				"identity":     account.Identity,
				"display_name": account.DisplayName,
			}, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// TopUpInput represents input for crediting an account.
type TopUpInput struct {
	Identity string
	Amount   uint64
}

// TopUp credits amount to the caller's balance and returns the updated account.
func (uc *AccountUseCase) TopUp(ctx context.Context, input TopUpInput) (*domain.Account, error) {
	var updated *domain.Account

	err := retry(ctx, uc.retrier, func() error {
		return runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
			account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.Identity)
			if err != nil {
				return err
			}

			if err := domain.ValidateAmount(input.Amount); err != nil {
				return err
			}

			balance, err := account.Credit(input.Amount)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			account.Balance = balance
			account.UpdatedAt = now
			if err := uc.accountRepo.Update(txCtx, tx, account); err != nil {
				return err
			}

			if err := emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
				domain.AggregateTypeAccount, account.Identity, domain.EventTypeAccountToppedUp,
				map[string]any{
					"identity":      account.Identity,
					"amount":        input.Amount,
					"balance_after": account.Balance,
				}, now); err != nil {
				return err
			}

			updated = account
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TopUps.Inc()
		uc.metrics.TopUpAmount.Observe(float64(input.Amount))
	}

	return updated, nil
}

// GetAccount retrieves the caller's account.
func (uc *AccountUseCase) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, identity)
}
