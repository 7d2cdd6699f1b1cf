package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
)

const (
	lockNotAvailable = "55P03"
	adminShutdown    = "57P01"
	cannotConnectNow = "57P03"
)

// Classify tags connection, lock and serialization failures with
// apperr.ErrTransientStore. Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, apperr.ErrTransientStore) {
		return err
	}
	if IsTransient(err) {
		return fmt.Errorf("%w: %w", apperr.ErrTransientStore, err)
	}
	return err
}

func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exception
			return true
		case strings.HasPrefix(pgErr.Code, "40"): // serialization failure, deadlock
			return true
		case pgErr.Code == lockNotAvailable, pgErr.Code == adminShutdown, pgErr.Code == cannotConnectNow:
			return true
		}
		return false
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.Timeout(err)
}
