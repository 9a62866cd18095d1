// Package accountdelivery manages delivery layer of savings accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Elmar465/SpendSnap/internal/domain"
	"github.com/Elmar465/SpendSnap/internal/middleware"
	"github.com/Elmar465/SpendSnap/pkg/errorspkg"
	"github.com/Elmar465/SpendSnap/pkg/moneypkg"
	"github.com/Elmar465/SpendSnap/pkg/tokenpkg"
	"github.com/Elmar465/SpendSnap/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, ownerID, accountID int32) (domain.Account, error)
	List(ctx context.Context, ownerID int32, status *domain.AccountStatus) ([]domain.Account, error)
	GetBalance(ctx context.Context, ownerID, accountID int32) (decimal.Decimal, error)
	Deposit(ctx context.Context, ownerID, accountID int32, amount, memo string) (domain.Account, error)
	Withdraw(ctx context.Context, ownerID, accountID int32, amount, memo string) (domain.Account, error)
	Transfer(ctx context.Context, ownerID, fromID, toID int32, amount, memo string) (domain.TransferResult, error)
	Archive(ctx context.Context, ownerID, accountID int32) (domain.Account, error)
	Update(ctx context.Context, ownerID, accountID int32, patch domain.UpdateAccountParams) (domain.Account, error)
	Delete(ctx context.Context, ownerID, accountID int32) error
	AccrueInterestIfDue(ctx context.Context, ownerID, accountID int32, asOf *time.Time) (decimal.Decimal, error)
	PreviewInterest(ctx context.Context, ownerID, accountID int32, from, to time.Time) (decimal.Decimal, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) *Handler {
	return &Handler{service: as}
}

func ownerID(gctx *gin.Context) int32 {
	payload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)
	return payload.UserID
}

func bindError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())
	l.Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})

		return
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))
}

// writeError maps domain errors onto http status codes: missing or foreign
// accounts are 404, business-rule violations and stale writes are 409,
// malformed amounts are 400, everything else is an internal error.
func writeError(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())
	l.Info().Err(err).Send()

	switch err {
	case domain.ErrAccountNotFound,
		domain.ErrOwnerNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case domain.ErrAccountNameTaken,
		domain.ErrAccountInactive,
		domain.ErrInsufficientBalance,
		domain.ErrNonPositiveAmount,
		domain.ErrNegativeOpeningBalance,
		domain.ErrSameAccountTransfer,
		domain.ErrCurrencyMismatch,
		domain.ErrCurrencyChange,
		domain.ErrBlankName,
		domain.ErrNegativeInterestRate,
		domain.ErrBalanceImmutable,
		domain.ErrBalanceNotZero,
		domain.ErrStaleWrite:
		gctx.JSON(http.StatusConflict, web.Error(err))
	case domain.ErrInvalidAmount:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

type accountURI struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

type accountData struct {
	Account domain.Account `json:"account"`
}

type accountResponse struct {
	Data accountData `json:"data,omitempty"`
}

type createRequest struct {
	Name           string `json:"name"`
	Currency       string `json:"currency" binding:"required,currency"`
	OpeningBalance string `json:"opening_balance"`
	InterestAPR    string `json:"interest_apr"`
	Compounding    string `json:"compounding" binding:"omitempty,oneof=DAILY MONTHLY"`
	DayCount       string `json:"day_count" binding:"omitempty,oneof=ACT_365F"`
	Notes          string `json:"notes"`
}

// Create handles http request to create an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	balance := decimal.Zero

	if req.OpeningBalance != "" {
		var err error

		balance, err = moneypkg.Parse(req.OpeningBalance)
		if err != nil {
			writeError(gctx, domain.ErrInvalidAmount)
			return
		}
	}

	apr := decimal.Zero

	if req.InterestAPR != "" {
		var err error

		apr, err = decimal.NewFromString(req.InterestAPR)
		if err != nil {
			writeError(gctx, domain.ErrInvalidAmount)
			return
		}
	}

	arg := domain.CreateAccountParams{
		OwnerID:     ownerID(gctx),
		Name:        req.Name,
		Currency:    req.Currency,
		Balance:     balance,
		InterestAPR: apr,
		Compounding: moneypkg.Compounding(req.Compounding),
		DayCount:    moneypkg.DayCount(req.DayCount),
		Notes:       req.Notes,
	}

	createdAccount, err := h.service.Create(ctx, arg)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, accountResponse{Data: accountData{createdAccount}})
}

// Get handles http request to get the account snapshot.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	acc, err := h.service.Get(ctx, ownerID(gctx), uri.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{acc}})
}

type listRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

type accountsData struct {
	Accounts []domain.Account `json:"accounts"`
}

type accountsResponse struct {
	Data accountsData `json:"data,omitempty"`
}

// List handles http request to list the caller's accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		bindError(gctx, err)
		return
	}

	var status *domain.AccountStatus

	if req.Status != "" {
		s := domain.AccountStatus(req.Status)
		status = &s
	}

	accounts, err := h.service.List(ctx, ownerID(gctx), status)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountsResponse{Data: accountsData{accounts}})
}

type updateRequest struct {
	Name                 *string    `json:"name"`
	Currency             *string    `json:"currency" binding:"omitempty,currency"`
	Status               *string    `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Balance              *string    `json:"balance"`
	InterestAPR          *string    `json:"interest_apr"`
	Compounding          *string    `json:"compounding" binding:"omitempty,oneof=DAILY MONTHLY"`
	DayCount             *string    `json:"day_count" binding:"omitempty,oneof=ACT_365F"`
	LastInterestPostedAt *time.Time `json:"last_interest_posted_at"`
	Notes                *string    `json:"notes"`
}

func (req *updateRequest) params() (domain.UpdateAccountParams, error) {
	patch := domain.UpdateAccountParams{
		Name:                 req.Name,
		Currency:             req.Currency,
		LastInterestPostedAt: req.LastInterestPostedAt,
		Notes:                req.Notes,
	}

	if req.Status != nil {
		s := domain.AccountStatus(*req.Status)
		patch.Status = &s
	}

	if req.Balance != nil {
		b, err := decimal.NewFromString(*req.Balance)
		if err != nil {
			return patch, domain.ErrInvalidAmount
		}

		patch.Balance = &b
	}

	if req.InterestAPR != nil {
		apr, err := decimal.NewFromString(*req.InterestAPR)
		if err != nil {
			return patch, domain.ErrInvalidAmount
		}

		patch.InterestAPR = &apr
	}

	if req.Compounding != nil {
		c := moneypkg.Compounding(*req.Compounding)
		patch.Compounding = &c
	}

	if req.DayCount != nil {
		dc := moneypkg.DayCount(*req.DayCount)
		patch.DayCount = &dc
	}

	return patch, nil
}

// Update handles http request to patch account fields.
func (h *Handler) Update(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	var req updateRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	patch, err := req.params()
	if err != nil {
		writeError(gctx, err)
		return
	}

	acc, err := h.service.Update(ctx, ownerID(gctx), uri.ID, patch)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{acc}})
}

// Archive handles http request to archive an account.
func (h *Handler) Archive(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	acc, err := h.service.Archive(ctx, ownerID(gctx), uri.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{acc}})
}

// Delete handles http request to delete a zero-balance account.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	if err := h.service.Delete(ctx, ownerID(gctx), uri.ID); err != nil {
		writeError(gctx, err)
		return
	}

	gctx.Status(http.StatusNoContent)
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required"`
	Memo   string `json:"memo"`
}

// Deposit handles http request to deposit money into an account.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	acc, err := h.service.Deposit(ctx, ownerID(gctx), uri.ID, req.Amount, req.Memo)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{acc}})
}

// Withdraw handles http request to withdraw money from an account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	var req amountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	acc, err := h.service.Withdraw(ctx, ownerID(gctx), uri.ID, req.Amount, req.Memo)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, accountResponse{Data: accountData{acc}})
}

type transferRequest struct {
	FromAccountID int32  `json:"from_account_id" binding:"required,min=1"`
	ToAccountID   int32  `json:"to_account_id" binding:"required,min=1"`
	Amount        string `json:"amount" binding:"required"`
	Memo          string `json:"memo"`
}

type transferData struct {
	Transfer domain.TransferResult `json:"transfer"`
}

type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// Transfer handles http request to transfer money between two accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bindError(gctx, err)
		return
	}

	result, err := h.service.Transfer(ctx, ownerID(gctx), req.FromAccountID, req.ToAccountID, req.Amount, req.Memo)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, transferResponse{Data: transferData{result}})
}

type balanceData struct {
	Balance decimal.Decimal `json:"balance"`
}

type balanceResponse struct {
	Data balanceData `json:"data,omitempty"`
}

// GetBalance handles http request to read the account balance.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	balance, err := h.service.GetBalance(ctx, ownerID(gctx), uri.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, balanceResponse{Data: balanceData{balance}})
}

type interestData struct {
	Interest decimal.Decimal `json:"interest"`
}

type interestResponse struct {
	Data interestData `json:"data,omitempty"`
}

// AccrueInterest handles http request to post due interest on an account.
// The optional as_of query parameter is an RFC 3339 timestamp.
func (h *Handler) AccrueInterest(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	var asOf *time.Time

	if raw := gctx.Query("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			bindError(gctx, err)
			return
		}

		asOf = &t
	}

	interest, err := h.service.AccrueInterestIfDue(ctx, ownerID(gctx), uri.ID, asOf)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, interestResponse{Data: interestData{interest}})
}

// PreviewInterest handles http request to preview interest over [from, to)
// without mutating the account. Both query parameters are RFC 3339 timestamps.
func (h *Handler) PreviewInterest(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		bindError(gctx, err)
		return
	}

	from, err := time.Parse(time.RFC3339, gctx.Query("from"))
	if err != nil {
		bindError(gctx, err)
		return
	}

	to, err := time.Parse(time.RFC3339, gctx.Query("to"))
	if err != nil {
		bindError(gctx, err)
		return
	}

	interest, err := h.service.PreviewInterest(ctx, ownerID(gctx), uri.ID, from, to)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, interestResponse{Data: interestData{interest}})
}
