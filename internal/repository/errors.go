package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	domainRepo "clinic-booking/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the usecases care about.
const (
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgInsufficientPrivilege = "42501"
	pgQueryCanceled         = "57014"
	pgAdminShutdown         = "57P01"
	pgTooManyConnections    = "53300"
	pgConnectionClass       = "08"
)

// classifyError wraps err with the matching domain store error class while
// keeping the original error in the chain.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %w", domainRepo.ErrDuplicateKey, err)
		case pgErr.Code == pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", domainRepo.ErrForeignKey, err)
		case pgErr.Code == pgInsufficientPrivilege:
			return fmt.Errorf("%w: %w", domainRepo.ErrPermissionDenied, err)
		case strings.HasPrefix(pgErr.Code, pgConnectionClass),
			pgErr.Code == pgQueryCanceled,
			pgErr.Code == pgAdminShutdown,
			pgErr.Code == pgTooManyConnections:
			return fmt.Errorf("%w: %w", domainRepo.ErrStoreUnavailable, err)
		}
		return err
	}

	if isTransient(err) {
		return fmt.Errorf("%w: %w", domainRepo.ErrStoreUnavailable, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
