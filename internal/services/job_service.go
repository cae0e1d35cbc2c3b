package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"budgeting/internal/logger"
	"budgeting/internal/models"
)

// JobOptions tunes the batch jobs.
type JobOptions struct {
	// BatchSize caps the wallets imported per run.
	BatchSize int
	// TimeBudget stops an import run once exceeded. Zero means no limit.
	TimeBudget time.Duration
	// BudgetEndWindow is how far back a budget end date may lie to be notified.
	BudgetEndWindow time.Duration
}

const defaultJobBatchSize = 10

// jobService runs the scheduled import and notification jobs.
type jobService struct {
	wallets  WalletServicer
	imports  ImportServicer
	budgets  BudgetServicer
	notifier NotificationServicer
	opts     JobOptions
	clock    func() time.Time
}

// NewJobService creates a new JobServicer.
func NewJobService(
	wallets WalletServicer,
	imports ImportServicer,
	budgets BudgetServicer,
	notifier NotificationServicer,
	opts JobOptions,
) JobServicer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultJobBatchSize
	}
	if opts.BudgetEndWindow <= 0 {
		opts.BudgetEndWindow = 24 * time.Hour
	}
	return &jobService{
		wallets:  wallets,
		imports:  imports,
		budgets:  budgets,
		notifier: notifier,
		opts:     opts,
		clock:    time.Now,
	}
}

func newRunLogger(job string) *zap.SugaredLogger {
	runID, err := uuid.NewV7()
	if err != nil {
		runID = uuid.New()
	}
	return logger.With("job", job, "run_id", runID.String())
}

// ImportLinkedWallets imports [last_import, today) for each eligible wallet,
// one wallet at a time. A wallet that fails keeps its watermark and its
// error is recorded; the run moves on to the next wallet.
func (s *jobService) ImportLinkedWallets(ctx context.Context, now time.Time) (*JobResult, error) {
	log := newRunLogger("import_linked_wallets")
	today := startOfDay(now)

	wallets, err := s.wallets.ListImportableWallets(today, s.opts.BatchSize)
	if err != nil {
		return nil, err
	}

	started := s.clock()
	result := &JobResult{}
	for i := range wallets {
		if ctx.Err() != nil {
			log.Warnw("import run cancelled", "remaining", len(wallets)-i)
			break
		}
		if i > 0 && s.opts.TimeBudget > 0 && s.clock().Sub(started) > s.opts.TimeBudget {
			log.Warnw("import run out of time", "remaining", len(wallets)-i)
			break
		}

		if s.importWallet(ctx, log, &wallets[i], today, now) {
			result.Success++
		} else {
			result.Failed++
		}
	}

	log.Infow("import run finished", "success", result.Success, "failed", result.Failed)
	return result, nil
}

func (s *jobService) importWallet(ctx context.Context, log *zap.SugaredLogger, wallet *models.Wallet, today, now time.Time) bool {
	wlog := log.With("wallet_id", wallet.ID, "user_id", wallet.UserID)

	res, err := s.imports.ImportTransactions(ctx, wallet, wallet.LastImport, today)
	if err != nil {
		wlog.Errorw("wallet import failed", "error", err)
		if markErr := s.wallets.MarkFailed(wallet.ID, err, now); markErr != nil {
			wlog.Errorw("failed to record wallet error", "error", markErr)
		}
		return false
	}
	if res.WalletRemoved {
		wlog.Infow("wallet removed during import")
		return true
	}

	if err := s.wallets.MarkImported(wallet.ID, today); err != nil {
		wlog.Errorw("failed to advance wallet watermark", "error", err)
		return false
	}
	wlog.Infow("wallet imported",
		"fetched", res.Fetched,
		"created", res.Created,
		"recategorized", res.Recategorized,
		"unchanged", res.Unchanged,
		"skipped", res.Skipped,
	)

	s.notifyFirstImport(ctx, wlog, wallet, res)
	s.notifyOverBudget(ctx, wlog, wallet)
	return true
}

func (s *jobService) notifyFirstImport(ctx context.Context, log *zap.SugaredLogger, wallet *models.Wallet, res *ImportResult) {
	_, err := s.notifier.NotifyOnce(ctx, wallet.UserID, models.TaskFirstImportNotification, wallet.ID,
		func(ctx context.Context) error {
			return s.notifier.Notify(ctx, wallet.UserID, NotificationTransactionImported, map[string]interface{}{
				"wallet_id":   wallet.ID,
				"wallet_name": wallet.Name,
				"created":     res.Created,
			})
		})
	if err != nil {
		log.Errorw("failed to claim first import notification", "error", err)
	}
}

// notifyOverBudget notifies once per budget of the wallet that is over its
// amount and has not ended yet.
func (s *jobService) notifyOverBudget(ctx context.Context, log *zap.SugaredLogger, wallet *models.Wallet) {
	isOver, isEnd := true, false
	walletID := wallet.ID
	details, err := s.budgets.Evaluate(wallet.UserID, BudgetFilter{WalletID: &walletID, IsOver: &isOver, IsEnd: &isEnd})
	if err != nil {
		log.Errorw("failed to evaluate budgets", "error", err)
		return
	}

	for i := range details {
		d := details[i]
		_, err := s.notifier.NotifyOnce(ctx, wallet.UserID, models.TaskOverBudgetNotification, d.ID,
			func(ctx context.Context) error {
				return s.notifier.Notify(ctx, wallet.UserID, NotificationBudgetOver, map[string]interface{}{
					"budget_id":      d.ID,
					"category_id":    d.CategoryID,
					"category_name":  d.CategoryName,
					"wallet_id":      d.WalletID,
					"wallet_name":    d.WalletName,
					"amount":         d.Amount.StringFixed(2),
					"current_amount": d.CurrentAmount.StringFixed(2),
				})
			})
		if err != nil {
			log.Errorw("failed to claim over budget notification", "error", err, "budget_id", d.ID)
		}
	}
}

// NotifyEndingBudgets sends a budget_end notification for every budget in
// the ending window. Runs inside the same window notify again.
func (s *jobService) NotifyEndingBudgets(ctx context.Context, now time.Time) (*JobResult, error) {
	log := newRunLogger("notify_ending_budgets")

	ending, err := s.budgets.ListEndingBudgets(now, s.opts.BudgetEndWindow)
	if err != nil {
		return nil, err
	}

	result := &JobResult{}
	for _, b := range ending {
		if ctx.Err() != nil {
			break
		}
		err := s.notifier.Notify(ctx, b.UserID, NotificationBudgetEnd, map[string]interface{}{
			"budget_id":     b.BudgetID,
			"category_id":   b.CategoryID,
			"category_name": b.CategoryName,
			"wallet_id":     b.WalletID,
			"wallet_name":   b.WalletName,
		})
		if err != nil {
			result.Failed++
			log.Errorw("failed to send budget end notification", "error", err, "budget_id", b.BudgetID, "user_id", b.UserID)
			continue
		}
		result.Success++
	}

	log.Infow("budget end run finished", "success", result.Success, "failed", result.Failed)
	return result, nil
}
