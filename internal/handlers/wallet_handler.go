package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgeting/internal/services"
)

// WalletHandler handles linked wallet requests.
type WalletHandler struct {
	walletService  services.WalletServicer
	summaryService services.SummaryServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer, summaryService services.SummaryServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService, summaryService: summaryService}
}

// LinkWalletRequest represents the request payload for linking a bank account.
type LinkWalletRequest struct {
	PlaidID string `json:"plaid_id" binding:"required,max=255"`
}

// GetWallets handles listing the user's wallets.
// @Summary     Get wallets
// @Description List the manual pseudo-wallet followed by the user's linked wallets, newest first
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.WalletView "List of wallets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets [get]
func (h *WalletHandler) GetWallets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallets, err := h.walletService.ListWallets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallets": wallets})
}

// LinkWallet handles linking a bank account as a wallet.
// @Summary     Link a wallet
// @Description Link a bank account known to the core service; relinking restores a removed wallet
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body LinkWalletRequest true "Linked account"
// @Success     201 {object} models.Wallet "Wallet linked"
// @Failure     400 {object} ErrorResponse "Invalid plaid_id"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Core service unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets [post]
func (h *WalletHandler) LinkWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req LinkWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	wallet, err := h.walletService.LinkWallet(c.Request.Context(), userID, req.PlaidID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"wallet": wallet})
}

// DeleteWallet handles unlinking a wallet.
// @Summary     Delete a wallet
// @Description Unlink a wallet; its transaction history is kept for a later relink
// @Tags        wallets
// @Security    BearerAuth
// @Param       id path int true "Wallet ID"
// @Success     204 "Wallet deleted"
// @Failure     400 {object} ErrorResponse "Invalid wallet ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.walletService.DeleteWallet(userID, walletID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetWalletBalances handles the all-time balance of every wallet.
// @Summary     Get wallet balances
// @Description All-time income, expense and balance for the total, the manual wallet and each linked wallet
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.WalletBalance "Wallet balances"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets/balance [get]
func (h *WalletHandler) GetWalletBalances(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.summaryService.WalletBalances(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
