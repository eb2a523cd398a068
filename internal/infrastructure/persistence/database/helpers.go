// Package database provides database helper functions
package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"
	"github.com/AtRiskMedia/storyreader-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storyreader-go/pkg/config"
)

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration, scope string) {
	threshold := config.SlowQueryThreshold

	// Imports write whole stories in one transaction
	if strings.HasPrefix(query, "BULK_") {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration, scope)
	}
}

// Classify maps a storage error to the application taxonomy: unique violations
// become ErrConstraint, anything else ErrUnavailable.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNotFound) || apperr.IsValidation(err) {
		return err
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w", op, errors.Join(apperr.ErrConstraint, err))
	}
	return apperr.Unavailable(op, err)
}
