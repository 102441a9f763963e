package wallet

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gigmart/backend/internal/domain"
	"github.com/gigmart/backend/internal/dto"
	"github.com/gigmart/backend/internal/service/walletservice"
	"github.com/gigmart/backend/pkg/utils"
)

type Service interface {
	GetBalance(ctx context.Context, userID int) (*walletservice.BalanceSnapshot, error)
	ListTransactions(ctx context.Context, userID int) ([]domain.WalletTransaction, error)
}

type WalletHandler struct {
	walletService Service
}

func New(walletService Service) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GetBalance godoc
//
//	@Summary		Get wallet balance
//	@Description	Returns the raw balance plus the derived available and eligibility amounts.
//	@Tags			Wallet
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	dto.BalanceResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid user id"
//	@Failure		404		{object}	utils.Response	"Wallet not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/wallets/{userID}/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	snapshot, err := h.walletService.GetBalance(r.Context(), userID)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Balance:            snapshot.Balance,
		PendingBalance:     snapshot.PendingBalance,
		Deposit:            snapshot.Deposit,
		AvailableBalance:   snapshot.Available,
		EligibilityBalance: snapshot.Eligibility,
		Currency:           snapshot.Currency,
	})
}

// GetTransactions godoc
//
//	@Summary		Get wallet ledger
//	@Description	Returns the user's wallet transactions, newest first.
//	@Tags			Wallet
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{array}		dto.TransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid user id"
//	@Failure		404		{object}	utils.Response	"Wallet not found"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/wallets/{userID}/transactions [get]
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	entries, err := h.walletService.ListTransactions(r.Context(), userID)
	if err != nil {
		respondWalletError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(entries))
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || id <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}
	return id, true
}

func respondWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, walletservice.ErrWalletNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
