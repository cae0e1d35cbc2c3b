package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"budgeting/internal/client"
	"budgeting/internal/models"
	"budgeting/internal/pagination"
)

// TransactionProvider fetches raw transactions from the aggregator.
type TransactionProvider interface {
	GetTransactions(ctx context.Context, accessToken string, from, to time.Time) ([]client.RawTransaction, error)
}

// AccountDirectory resolves linked accounts and device tokens from the core service.
type AccountDirectory interface {
	GetPlaidAccount(ctx context.Context, plaidID string) (*client.PlaidAccount, error)
	GetDeviceTokens(ctx context.Context, userIDs []uint) ([]string, error)
}

// NotificationSender delivers a notification payload.
type NotificationSender interface {
	Send(ctx context.Context, payload map[string]interface{}) error
}

// CategoryInput holds the fields for creating a user category.
type CategoryInput struct {
	Name        string
	Description string
	Direction   models.Direction
	GroupID     uint
	Order       int
}

// CategoryUpdate holds the optional fields for updating a user category.
type CategoryUpdate struct {
	Name        *string
	Description *string
	GroupID     *uint
	Order       *int
}

// CategorySuggestion is the closest known category for a provider label.
type CategorySuggestion struct {
	Label          string          `json:"label"`
	MatchedMapping string          `json:"matched_mapping,omitempty"`
	Similarity     float64         `json:"similarity"`
	Category       models.Category `json:"category"`
}

// CategoryServicer defines the contract for the category taxonomy.
type CategoryServicer interface {
	ListCategories(userID uint, directions []models.Direction) ([]models.Category, error)
	ListGroups(userID uint, directions []models.Direction) ([]models.CategoryGroup, error)
	GetCategory(userID, categoryID uint) (*models.Category, error)
	CreateCategory(userID uint, input CategoryInput) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, input CategoryUpdate) (*models.Category, error)
	DeleteUserCategory(userID, categoryID uint) error
	DefaultCategory(direction models.Direction) (*models.Category, error)
	SuggestCategory(direction models.Direction, label string) (*CategorySuggestion, error)
}

// Wallet types reported by the wallet list.
const (
	WalletTypeManual = "manual_wallet"
	WalletTypeLinked = "linked_bank"
)

// WalletView is one row of the wallet list.
type WalletView struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	SubName    string     `json:"sub_name"`
	PlaidID    *string    `json:"plaid_id"`
	Type       string     `json:"type"`
	LastImport *time.Time `json:"last_import,omitempty"`
	Error      *string    `json:"error,omitempty"`
}

// WalletServicer defines the contract for linked wallets.
type WalletServicer interface {
	LinkWallet(ctx context.Context, userID uint, plaidID string) (*models.Wallet, error)
	ListWallets(userID uint) ([]WalletView, error)
	GetWallet(userID, walletID uint) (*models.Wallet, error)
	DeleteWallet(userID, walletID uint) error
	ListImportableWallets(today time.Time, limit int) ([]models.Wallet, error)
	MarkImported(walletID uint, today time.Time) error
	MarkFailed(walletID uint, cause error, at time.Time) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Scope      WalletScope
	CategoryID *uint
	Directions []models.Direction
	Amount     *decimal.Decimal
	AmountGt   *decimal.Decimal
	AmountGte  *decimal.Decimal
	AmountLt   *decimal.Decimal
	AmountLte  *decimal.Decimal
	FromDate   *time.Time
	ToDate     *time.Time
}

// TransactionInput holds the fields of a manual transaction.
type TransactionInput struct {
	CategoryID    *uint
	Direction     models.Direction
	Amount        decimal.Decimal
	Currency      string
	Note          string
	TransactionAt *time.Time
	Location      json.RawMessage
	LocationName  *string
}

// TransactionUpdate holds the optional fields for updating a transaction.
// Only CategoryID and Note apply to linked transactions.
type TransactionUpdate struct {
	CategoryID    *uint
	Note          *string
	Direction     *models.Direction
	Amount        *decimal.Decimal
	Currency      *string
	TransactionAt *time.Time
}

// TransactionView is the API representation of a ledger row.
type TransactionView struct {
	ID            uint             `json:"id"`
	TransactionAt time.Time        `json:"transaction_at"`
	Category      uint             `json:"category"`
	CategoryName  string           `json:"category_name"`
	CategoryCode  string           `json:"category_code"`
	CategoryText  string           `json:"category_text"`
	Direction     models.Direction `json:"direction"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	WalletID      uint             `json:"wallet_id"`
	Note          string           `json:"note"`
	Location      json.RawMessage  `json:"location"`
	LocationName  *string          `json:"location_name"`
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	ListTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[TransactionView], error)
	GetTransaction(userID, transactionID uint) (*TransactionView, error)
	CreateTransaction(userID uint, input TransactionInput) (*TransactionView, error)
	UpdateTransaction(userID, transactionID uint, input TransactionUpdate) (*TransactionView, error)
	DeleteTransaction(userID, transactionID uint) error
}

// ImportResult reports what one wallet import did.
type ImportResult struct {
	Fetched       int  `json:"fetched"`
	Created       int  `json:"created"`
	Recategorized int  `json:"recategorized"`
	Unchanged     int  `json:"unchanged"`
	Skipped       int  `json:"skipped"`
	WalletRemoved bool `json:"wallet_removed"`
}

// ImportServicer reconciles a wallet's aggregator transactions into the ledger.
type ImportServicer interface {
	ImportTransactions(ctx context.Context, wallet *models.Wallet, from, to time.Time) (*ImportResult, error)
}

// DayTotal is one calendar day of income and expense.
type DayTotal struct {
	TransactionAt string          `json:"transaction_at"`
	IncomeAmount  decimal.Decimal `json:"income_amount"`
	ExpenseAmount decimal.Decimal `json:"expense_amount"`
}

// PeriodSummary is the running balance view of one month or year.
type PeriodSummary struct {
	Type            PeriodType      `json:"type"`
	Range           string          `json:"range"`
	Income          decimal.Decimal `json:"income"`
	Expense         decimal.Decimal `json:"expense"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Balance         decimal.Decimal `json:"balance"`
}

// CategoryTotal is the spend or income of one category in a period.
type CategoryTotal struct {
	CategoryID   uint            `json:"category_id"`
	CategoryCode string          `json:"category_code"`
	CategoryName string          `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
}

// MonthTotal is one month of a category trend.
type MonthTotal struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// WalletBalance is the all-time balance of a wallet or pseudo-wallet.
type WalletBalance struct {
	WalletID   uint            `json:"wallet_id"`
	WalletName string          `json:"wallet_name"`
	Type       string          `json:"type"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Balance    decimal.Decimal `json:"balance"`
}

// SummaryServicer defines the read-side aggregation contract.
type SummaryServicer interface {
	ByDay(userID uint, month string, scope WalletScope) ([]DayTotal, error)
	PeriodSummary(userID uint, period Period, scope WalletScope) (*PeriodSummary, error)
	ByCategory(userID uint, period Period, direction models.Direction, scope WalletScope) ([]CategoryTotal, error)
	CategoryTrend(userID, categoryID uint, fromMonth, toMonth string, scope WalletScope) ([]MonthTotal, error)
	WalletBalances(userID uint) ([]WalletBalance, error)
}

// BudgetInput holds the fields of a budget. WalletID 0 means manual.
type BudgetInput struct {
	CategoryID uint
	WalletID   uint
	Amount     decimal.Decimal
	FromDate   time.Time
	ToDate     time.Time
}

// BudgetFilter holds the optional filters of a budget evaluation.
type BudgetFilter struct {
	WalletID *uint
	IsEnd    *bool
	IsOver   *bool
}

// BudgetDetail is a budget together with its evaluated state.
type BudgetDetail struct {
	ID            uint            `json:"id"`
	CategoryID    uint            `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	WalletID      uint            `json:"wallet_id"`
	WalletName    string          `json:"wallet_name"`
	Amount        decimal.Decimal `json:"amount"`
	FromDate      string          `json:"from_date"`
	ToDate        string          `json:"to_date"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	IsEnd         bool            `json:"is_end"`
	IsOver        bool            `json:"is_over"`
}

// EndingBudget is one row of the end-budget notification feed.
type EndingBudget struct {
	UserID       uint   `json:"user_id"`
	BudgetID     uint   `json:"budget_id"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	WalletID     uint   `json:"wallet_id"`
	WalletName   string `json:"wallet_name"`
}

// BudgetServicer defines the contract for budgets and their evaluation.
type BudgetServicer interface {
	CreateBudget(userID uint, input BudgetInput) (*BudgetDetail, error)
	GetBudget(userID, budgetID uint) (*BudgetDetail, error)
	UpdateBudget(userID, budgetID uint, input BudgetInput) (*BudgetDetail, error)
	DeleteBudget(userID, budgetID uint) error
	Evaluate(userID uint, filter BudgetFilter) ([]BudgetDetail, error)
	ListEndingBudgets(now time.Time, window time.Duration) ([]EndingBudget, error)
}

// NotificationType is the kind of push notification sent to a user.
type NotificationType string

const (
	NotificationTransactionImported NotificationType = "transaction_imported"
	NotificationBudgetEnd           NotificationType = "budget_end"
	NotificationBudgetOver          NotificationType = "budget_over"
)

// NotificationServicer defines the contract for lifecycle notifications.
type NotificationServicer interface {
	NotifyOnce(ctx context.Context, userID uint, task string, objID uint, fire func(ctx context.Context) error) (bool, error)
	Notify(ctx context.Context, userID uint, kind NotificationType, data map[string]interface{}) error
}

// JobResult is the aggregate outcome of a batch job run.
type JobResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// JobServicer defines the scheduled batch jobs.
type JobServicer interface {
	ImportLinkedWallets(ctx context.Context, now time.Time) (*JobResult, error)
	NotifyEndingBudgets(ctx context.Context, now time.Time) (*JobResult, error)
}

// ExportServicer writes ledger exports.
type ExportServicer interface {
	ExportTransactions(userID uint, filter TransactionFilter, w io.Writer) error
}
