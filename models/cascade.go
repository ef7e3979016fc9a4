package models

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/thurasoft/stockledger_backend/config"
	"github.com/thurasoft/stockledger_backend/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("stockledger/models")

const (
	// cascadeMaxDays caps one forward walk per item. A cascade spanning more
	// days than this is truncated and reported as a warning; the next rebuild
	// from an earlier date picks up where it stopped.
	cascadeMaxDays = 1500
	// cascadeWorkers bounds the per-item fan-out. Days within one item are
	// always processed strictly in date order.
	cascadeWorkers = 4
)

// ItemDayError records a per-item, per-day cascade failure. Failures never
// propagate to the mutation that triggered the cascade.
type ItemDayError struct {
	ItemId    int       `json:"item_id"`
	StockDate time.Time `json:"stock_date"`
	Message   string    `json:"message"`
}

// CascadeResult aggregates one forward walk across all items of a scope.
type CascadeResult struct {
	Updates   int            `json:"updates"`
	Truncated bool           `json:"truncated"`
	Errors    []ItemDayError `json:"errors"`
}

// RecalculateClosingStock re-closes every active item of the scope for one
// date (the batch closing save path). Per-item failures are logged and
// skipped; the remaining items still close.
func RecalculateClosingStock(ctx context.Context, date time.Time) ([]*ClosingResult, error) {
	scope, err := ResolveScope(ctx)
	if err != nil {
		return nil, err
	}
	org, err := GetOrganization(ctx)
	if err != nil {
		return nil, err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	day, err := utils.ConvertToDate(date, org.Timezone)
	if err != nil {
		return nil, err
	}
	today, err := OrganizationToday(org)
	if err != nil {
		return nil, err
	}
	if day.After(today) {
		return nil, ErrFutureDate
	}

	db := config.GetDB()
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "cascadeLock", "cascade.go", "RecalculateClosingStock")
	if err != nil {
		return nil, err
	}
	defer release()

	items, err := ListActiveItems(db.WithContext(ctx), scope.OrganizationId)
	if err != nil {
		return nil, err
	}

	logger := config.GetLogger()
	results := make([]*ClosingResult, 0, len(items))
	for _, item := range items {
		res, err := closeItemDayRetry(ctx, db, scope, item.ID, day, userId)
		if err != nil {
			config.LogError(logger, "cascade.go", "RecalculateClosingStock", "close day failed", item.ID, err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// SaveClosingEntries is the batch end-of-day save: it settles the date for
// every active item and, for past dates, cascades the new balances forward so
// subsequent days never go stale.
func SaveClosingEntries(ctx context.Context, date time.Time) ([]*ClosingResult, error) {
	results, err := RecalculateClosingStock(ctx, date)
	if err != nil {
		return nil, err
	}

	org, err := GetOrganization(ctx)
	if err != nil {
		return nil, err
	}
	day, err := utils.ConvertToDate(date, org.Timezone)
	if err != nil {
		return nil, err
	}
	today, err := OrganizationToday(org)
	if err != nil {
		return nil, err
	}
	runCascadeAfterWrite(ctx, org, day, today, "cascade.go", "SaveClosingEntries")

	return results, nil
}

// CascadeUpdateFromDate runs the forward walk for every active item of the
// scope, from start date until each item runs out of recorded activity or
// reaches the organization's today. Items fan out over a bounded worker pool;
// each item's chain is strictly date-ordered.
func CascadeUpdateFromDate(ctx context.Context, date time.Time) (*CascadeResult, error) {
	scope, err := ResolveScope(ctx)
	if err != nil {
		return nil, err
	}
	org, err := GetOrganization(ctx)
	if err != nil {
		return nil, err
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	start, err := utils.ConvertToDate(date, org.Timezone)
	if err != nil {
		return nil, err
	}
	today, err := OrganizationToday(org)
	if err != nil {
		return nil, err
	}
	if start.After(today) {
		return nil, ErrFutureDate
	}

	db := config.GetDB()
	if db == nil {
		return nil, ErrDBNotInitialized
	}

	ctx, span := tracer.Start(ctx, "CascadeUpdateFromDate", trace.WithAttributes(
		attribute.String("organization_id", scope.OrganizationId),
		attribute.Int("branch_id", scope.BranchId),
		attribute.String("start_date", start.Format("2006-01-02")),
	))
	defer span.End()

	release, err := utils.ScopeLock(ctx, scope.OrganizationId, "cascadeLock", "cascade.go", "CascadeUpdateFromDate")
	if err != nil {
		return nil, err
	}
	defer release()

	items, err := ListActiveItems(db.WithContext(ctx), scope.OrganizationId)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	itemCh := make(chan int)

	workers := cascadeWorkers
	if len(items) < workers {
		workers = len(items)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for itemId := range itemCh {
				updates, truncated, errs := cascadeItemChain(ctx, db, scope, itemId, start, today, userId)
				mu.Lock()
				result.Updates += updates
				result.Truncated = result.Truncated || truncated
				result.Errors = append(result.Errors, errs...)
				mu.Unlock()
			}
		}()
	}
	for _, item := range items {
		itemCh <- item.ID
	}
	close(itemCh)
	wg.Wait()

	span.SetAttributes(
		attribute.Int("updates", result.Updates),
		attribute.Int("errors", len(result.Errors)),
		attribute.Bool("truncated", result.Truncated),
	)

	return result, nil
}

// cascadeItemChain walks one item forward from start: close D, propagate into
// D+1's opening, advance. The walk stops at the organization's today, at the
// iteration cap, or once no ledger rows exist beyond the current day. Every
// day with activity in that span is re-closed, so a rebuild from an earlier
// date repairs any stale closing left behind by a previous per-day failure.
func cascadeItemChain(ctx context.Context, db *gorm.DB, scope *Scope, itemId int, start, today time.Time, userId int) (int, bool, []ItemDayError) {
	logger := config.GetLogger()
	updates := 0
	truncated := false
	var errs []ItemDayError

	d := start
	res, err := closeItemDayRetry(ctx, db, scope, itemId, d, userId)
	if err != nil {
		errs = append(errs, ItemDayError{ItemId: itemId, StockDate: d, Message: err.Error()})
		return updates, truncated, errs
	}
	if res.Changed {
		updates++
	}

	for steps := 0; ; steps++ {
		if steps >= cascadeMaxDays {
			truncated = true
			logger.WithFields(logrus.Fields{
				"organization_id": scope.OrganizationId,
				"branch_id":       scope.BranchId,
				"item_id":         itemId,
				"start_date":      start.Format("2006-01-02"),
				"stopped_at":      d.Format("2006-01-02"),
			}).Warn("cascade truncated at iteration cap")
			break
		}

		next := utils.NextDate(d)
		if next.After(today) {
			// Today's ledger is still open; tomorrow never gets an opening
			// until today is closed for real.
			break
		}

		more, err := hasLedgerActivityOnOrAfter(ctx, db, scope, itemId, next)
		if err != nil {
			errs = append(errs, ItemDayError{ItemId: itemId, StockDate: next, Message: err.Error()})
			break
		}
		if !more {
			// Nothing recorded from next onward: fixed point, later days
			// stay untouched.
			break
		}

		openRes, err := openItemDayRetry(ctx, db, scope, itemId, next, res.ClosingQty, userId)
		if err != nil {
			errs = append(errs, ItemDayError{ItemId: itemId, StockDate: next, Message: err.Error()})
			break
		}

		// An unchanged opening is not a fixed point while rows exist further
		// ahead: a later day may hold a stale closing (a prior per-day
		// failure) that only re-closing can repair, so the walk keeps going
		// until the activity probe runs dry.
		dayUpdated := openRes.Changed
		res, err = closeItemDayRetry(ctx, db, scope, itemId, next, userId)
		if err != nil {
			errs = append(errs, ItemDayError{ItemId: itemId, StockDate: next, Message: err.Error()})
			break
		}
		if res.Changed || dayUpdated {
			updates++
		}
		d = next
	}

	return updates, truncated, errs
}

// hasLedgerActivityOnOrAfter reports whether any ledger row (opening, closing,
// restocking, sale, waste) exists for the item on or after the given date.
func hasLedgerActivityOnOrAfter(ctx context.Context, db *gorm.DB, scope *Scope, itemId int, date time.Time) (bool, error) {
	type probe struct {
		model interface{}
	}
	probes := []probe{
		{&OpeningStock{}},
		{&ClosingStock{}},
		{&Restocking{}},
		{&Sale{}},
		{&WasteSpoilage{}},
	}
	for _, p := range probes {
		var count int64
		err := db.WithContext(ctx).Model(p.model).
			Where("organization_id = ? AND branch_id = ? AND item_id = ? AND stock_date >= ?",
				scope.OrganizationId, scope.BranchId, itemId, date).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// closeItemDayRetry retries a failed close once before giving up; transient
// store errors should not abort a whole chain.
func closeItemDayRetry(ctx context.Context, db *gorm.DB, scope *Scope, itemId int, date time.Time, userId int) (*ClosingResult, error) {
	var res *ClosingResult
	run := func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = CloseItemDay(tx, scope, itemId, date, userId)
			return err
		})
	}
	if err := run(); err != nil {
		if err = run(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func openItemDayRetry(ctx context.Context, db *gorm.DB, scope *Scope, itemId int, date time.Time, qty decimal.Decimal, userId int) (*OpenResult, error) {
	var res *OpenResult
	run := func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			res, err = OpenItemDay(tx, scope, itemId, date, qty, userId)
			return err
		})
	}
	if err := run(); err != nil {
		if err = run(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// runCascadeAfterWrite triggers the forward walk for a committed past-date
// write. Today's writes never cascade (the current day is still open), and a
// failed cascade never fails the primary mutation: it is logged and the next
// rebuild from an earlier date self-heals the history.
func runCascadeAfterWrite(ctx context.Context, org *Organization, date, today time.Time, moduleName, funcName string) {
	if !date.Before(today) {
		return
	}
	if _, err := CascadeUpdateFromDate(ctx, date); err != nil {
		config.LogError(config.GetLogger(), moduleName, funcName, "cascade after write failed", map[string]interface{}{
			"organization_id": org.ID.String(),
			"date":            date.Format("2006-01-02"),
		}, err)
	}
}
