package replay

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// readOnlySQLTransaction is SQLSTATE 25006, raised by a hot standby when a
// statement tries to write.
const readOnlySQLTransaction = "25006"

// ErrPrimaryReadOnly is reported when the primary region itself refuses a
// write, for example while a failover is in progress.
var ErrPrimaryReadOnly = errors.New("primary database is read-only")

// IsReadOnly reports whether err was caused by writing to a read replica.
func IsReadOnly(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == readOnlySQLTransaction
	}

	// Some wrappers flatten the error to a string.
	return strings.Contains(err.Error(), "read-only transaction")
}
