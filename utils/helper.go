package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/thurasoft/stockledger_backend/config"
)

// ConvertToDate truncates a timestamp to the calendar date in the given timezone.
// All ledger rows are keyed by this date-only value.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = "UTC"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)

	dateOnly := time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location)
	return dateOnly, nil
}

// TodayInZone returns the current calendar date in the given timezone.
func TodayInZone(timezone string) (time.Time, error) {
	return ConvertToDate(time.Now(), timezone)
}

// NextDate advances a date-only value by one calendar day in its own location.
func NextDate(d time.Time) time.Time {
	return d.AddDate(0, 0, 1)
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// ScopeLock serializes ledger writes for one organization.
// Returns a release func. When Redis is not configured the lock degrades to a
// no-op (single-process deployments and tests).
func ScopeLock(ctx context.Context, organizationId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, organizationId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 20),
	})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for organization", organizationId, err)
		return nil, errors.New("could not obtain lock for organization")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for organization", organizationId, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
