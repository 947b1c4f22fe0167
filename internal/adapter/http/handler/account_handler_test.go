package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	topUpFn  func(ctx context.Context, input usecase.TopUpInput) (*domain.Account, error)
	getFn    func(ctx context.Context, identity string) (*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) TopUp(ctx context.Context, input usecase.TopUpInput) (*domain.Account, error) {
	return s.topUpFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	return s.getFn(ctx, identity)
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	h := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{Identity: input.Identity, DisplayName: input.DisplayName, Version: 1}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(t, http.MethodPost, "/api/v1/account", &alice, dto.CreateAccountRequest{DisplayName: "Alice"}, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, usecase.CreateAccountInput{Identity: "alice", DisplayName: "Alice"}, captured)

	var resp dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Identity)
	assert.Zero(t, resp.Balance)
}

func TestAccountHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		principal  *domain.Principal
		body       string
		serviceErr error
		wantStatus int
	}{
		{"no principal", nil, `{"display_name":"Alice"}`, nil, http.StatusUnauthorized},
		{"invalid json", &alice, `{invalid json`, nil, http.StatusBadRequest},
		{"empty name", &alice, `{"display_name":""}`, domain.ErrInvalidDisplayName, http.StatusBadRequest},
		{"duplicate", &alice, `{"display_name":"Alice"}`, domain.ErrAccountExists, http.StatusBadRequest},
		{"store failure", &alice, `{"display_name":"Alice"}`, errors.New("db error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := NewAccountHandler(&accountServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
					called = true
					return nil, tt.serviceErr
				},
			})

			rec := httptest.NewRecorder()
			h.Create(rec, newRequest(t, http.MethodPost, "/api/v1/account", tt.principal, tt.body, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.serviceErr != nil, called)
		})
	}
}

func TestAccountHandler_Get(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, identity string) (*domain.Account, error) {
			if identity != "alice" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.Account{Identity: "alice", Balance: 950}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(t, http.MethodGet, "/api/v1/account", &alice, nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(950), resp.Balance)

	bob := domain.Principal{ID: "bob", Role: domain.RoleTrader}
	rec = httptest.NewRecorder()
	h.Get(rec, newRequest(t, http.MethodGet, "/api/v1/account", &bob, nil, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ErrAccountNotFound.Error(), decodeError(t, rec).Message)
}

func TestAccountHandler_TopUp(t *testing.T) {
	var captured usecase.TopUpInput
	h := NewAccountHandler(&accountServiceStub{
		topUpFn: func(ctx context.Context, input usecase.TopUpInput) (*domain.Account, error) {
			captured = input
			if input.Amount == 0 {
				return nil, domain.ErrInvalidAmount
			}
			return &domain.Account{Identity: input.Identity, Balance: input.Amount}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.TopUp(rec, newRequest(t, http.MethodPost, "/api/v1/account/topup", &alice, dto.TopUpRequest{Amount: 1000}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.TopUpInput{Identity: "alice", Amount: 1000}, captured)

	rec = httptest.NewRecorder()
	h.TopUp(rec, newRequest(t, http.MethodPost, "/api/v1/account/topup", &alice, `{"amount":0}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrInvalidAmount.Error(), decodeError(t, rec).Message)
}
