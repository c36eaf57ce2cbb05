package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the forensic view of an error that gets attached to 5xx
// response logs: the app code, the unwrap chain, and whatever the postgres
// driver can tell us about a failed statement.
type ErrorDump struct {
	Code  Code     `json:"code,omitempty"`
	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
}

// Dump walks the wrap chain and extracts the driver fields. Both drivers are
// checked: pgx carries the runtime traffic, lib/pq surfaces through goose.
func Dump(err error) ErrorDump {
	var d ErrorDump
	if err == nil {
		return d
	}

	if appErr := As(err); appErr != nil {
		d.Code = appErr.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		return d
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
	}
	return d
}
