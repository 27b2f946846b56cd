package helper

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"
)

var (
	// ErrStoreUnavailable marks a store connection that could not be established or was lost.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrParse marks harvest source markup that does not have the expected structure.
	ErrParse = errors.New("unexpected page structure")
	// ErrIntegrityViolation marks a broken unique-name or author-reference invariant.
	ErrIntegrityViolation = errors.New("integrity violation")
	// ErrSourceUnavailable marks an author page that could not be fetched during a harvest run.
	ErrSourceUnavailable = errors.New("harvest source unavailable")
	// ErrNotFound is returned by single-row selects that matched nothing.
	ErrNotFound = errors.New("not found")
)

// database/sql does not export its closed-pool error
const errDBClosed = "sql: database is closed"

// NewError wraps err with the step that failed.
func NewError(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", step, err)
}

// ClassifyStoreError tags driver errors with ErrStoreUnavailable or ErrIntegrityViolation
// so callers can branch with errors.Is. sql.ErrNoRows becomes ErrNotFound.
// Errors that fit no category are returned unchanged.
func ClassifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrIntegrityViolation), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, context.Canceled):
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		// connection exception, invalid authorization, operator intervention
		case "08", "28", "57":
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		case "23":
			return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
		}
		if pqErr.Code == "3D000" {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), errDBClosed) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return err
}
