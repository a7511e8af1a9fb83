package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTemporary marks retryable collaborator failures (timeouts, quota).
	ErrTemporary = errors.New("temporary failure")
	// ErrSchemaValidation marks extraction output that does not match the
	// expected structure. The page is failed; the document continues.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrUnclassifiedField marks a queryable field missing from the static
	// classification table. This is a configuration defect and fatal.
	ErrUnclassifiedField = errors.New("unclassified field")
	// ErrInvalidFilter marks a filter value that cannot be parsed for its
	// field (bad number, bad date).
	ErrInvalidFilter = errors.New("invalid filter value")
	// ErrDuplicateDocument marks an ingest of a file whose content hash is
	// already stored. Callers treat it as a no-op success.
	ErrDuplicateDocument = errors.New("duplicate document")
	// ErrEmptyDocument marks a document with zero extractable pages.
	ErrEmptyDocument = errors.New("empty document")
	// ErrInvoiceNotFound is returned by repository lookups.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
