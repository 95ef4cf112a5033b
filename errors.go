package rdk

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for ingestion failures. Ingestors wrap these with
// source-specific context; use the predicates below (or errors.Cause) to
// discriminate.
var (
	// ErrSourceNotFound means the source identifier did not resolve: a
	// missing file, an absent bucket key, a bad table.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedSource means the source was reachable but could not be
	// parsed as tabular data.
	ErrMalformedSource = errors.New("malformed source")

	// ErrUnknownView is returned by Session.View for unregistered names.
	ErrUnknownView = errors.New("unknown view")

	// ErrNoStrategy is returned by a context whose strategy is unset.
	ErrNoStrategy = errors.New("no strategy set")
)

// MissingColumnError is returned by a strategy whose required column is
// absent from the input dataset. It identifies the column and, when known,
// the view that needed it, so one view's failure can be surfaced without
// disturbing the others.
type MissingColumnError struct {
	Column string
	View   string
}

func (e MissingColumnError) Error() string {
	if e.View == "" {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("%s: missing column %q", e.View, e.Column)
}

// IsSourceNotFound reports whether err's cause is ErrSourceNotFound.
func IsSourceNotFound(err error) bool {
	return errors.Cause(err) == ErrSourceNotFound
}

// IsMalformedSource reports whether err's cause is ErrMalformedSource.
func IsMalformedSource(err error) bool {
	return errors.Cause(err) == ErrMalformedSource
}

// IsMissingColumn reports whether err's cause is a MissingColumnError.
func IsMissingColumn(err error) bool {
	_, ok := errors.Cause(err).(MissingColumnError)
	return ok
}
