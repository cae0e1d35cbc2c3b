package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"budgeting/internal/models"
)

type scopeKind int

const (
	scopeAll scopeKind = iota
	scopeManual
	scopeWallet
)

// WalletScope selects which wallets a ledger query covers. The zero value
// covers every live wallet plus manual transactions.
type WalletScope struct {
	kind     scopeKind
	walletID uint
}

// AllWallets covers manual transactions and every live linked wallet.
func AllWallets() WalletScope { return WalletScope{kind: scopeAll} }

// ManualOnly covers transactions without a wallet.
func ManualOnly() WalletScope { return WalletScope{kind: scopeManual} }

// SpecificWallet covers one linked wallet.
func SpecificWallet(id uint) WalletScope { return WalletScope{kind: scopeWallet, walletID: id} }

// ScopeFromWalletID maps the API convention (absent = all, 0 = manual) to a scope.
func ScopeFromWalletID(id *uint) WalletScope {
	switch {
	case id == nil:
		return AllWallets()
	case *id == 0:
		return ManualOnly()
	default:
		return SpecificWallet(*id)
	}
}

// WalletID returns the scoped wallet id and whether the scope is a single wallet.
func (s WalletScope) WalletID() (uint, bool) {
	return s.walletID, s.kind == scopeWallet
}

func (s WalletScope) String() string {
	switch s.kind {
	case scopeManual:
		return "manual"
	case scopeWallet:
		return fmt.Sprintf("wallet:%d", s.walletID)
	default:
		return "all"
	}
}

// apply restricts a transactions query to the scope.
func (s WalletScope) apply(db *gorm.DB) *gorm.DB {
	switch s.kind {
	case scopeManual:
		return db.Where("transactions.wallet_id IS NULL")
	case scopeWallet:
		return db.Where("transactions.wallet_id = ?", s.walletID)
	default:
		return db
	}
}

// ledger returns the user's transactions, hiding rows of soft-deleted wallets.
func ledger(db *gorm.DB, userID uint) *gorm.DB {
	liveWallets := db.Session(&gorm.Session{NewDB: true}).Model(&models.Wallet{}).Select("id")
	return db.Model(&models.Transaction{}).
		Where("transactions.user_id = ?", userID).
		Where("(transactions.wallet_id IS NULL OR transactions.wallet_id IN (?))", liveWallets)
}

// dateBuckets renders transaction_at as a sortable text key in the active dialect.
type dateBuckets struct {
	day   string
	month string
}

func bucketsFor(db *gorm.DB) dateBuckets {
	if db.Dialector.Name() == "postgres" {
		return dateBuckets{
			day:   "to_char(transactions.transaction_at, 'YYYY-MM-DD')",
			month: "to_char(transactions.transaction_at, 'YYYY-MM')",
		}
	}
	return dateBuckets{
		day:   "strftime('%Y-%m-%d', transactions.transaction_at)",
		month: "strftime('%Y-%m', transactions.transaction_at)",
	}
}

const (
	monthLayout = "2006-01"
	yearLayout  = "2006"
	dateLayout  = "2006-01-02"
)

// PeriodType is the granularity of a summary.
type PeriodType string

const (
	PeriodMonth PeriodType = "month"
	PeriodYear  PeriodType = "year"
)

// Period is a half-open interval [Start, End) of one month or year.
type Period struct {
	Type  PeriodType
	Range string
	Start time.Time
	End   time.Time
}

// ParsePeriod parses "YYYY-MM" for month periods and "YYYY" for year periods.
// A year range with a month granularity is rejected.
func ParsePeriod(periodType PeriodType, value string) (Period, error) {
	switch periodType {
	case PeriodMonth:
		start, err := time.Parse(monthLayout, value)
		if err != nil {
			return Period{}, fmt.Errorf("range %q is not YYYY-MM", value)
		}
		return Period{Type: periodType, Range: value, Start: start, End: start.AddDate(0, 1, 0)}, nil
	case PeriodYear:
		start, err := time.Parse(yearLayout, value)
		if err != nil {
			if ym, ymErr := time.Parse(monthLayout, value); ymErr == nil {
				start = time.Date(ym.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
			} else {
				return Period{}, fmt.Errorf("range %q is not YYYY", value)
			}
		}
		return Period{Type: periodType, Range: start.Format(yearLayout), Start: start, End: start.AddDate(1, 0, 0)}, nil
	default:
		return Period{}, fmt.Errorf("unknown period type %q", periodType)
	}
}

// monthSeries lists every month from first to last inclusive as YYYY-MM.
func monthSeries(first, last time.Time) []string {
	first = time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	last = time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	var months []string
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(monthLayout))
	}
	return months
}

// monthsBetween counts whole months from the month of first to the month of last.
func monthsBetween(first, last time.Time) int {
	return (last.Year()-first.Year())*12 + int(last.Month()) - int(first.Month())
}

// startOfDay truncates t to UTC midnight.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
