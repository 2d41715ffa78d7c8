package postgres

import "errors"

const (
	codeUniqueViolation = "23505"
	codeUndefinedTable  = "42P01"
)

func sqlState(err error) string {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState()
	}
	return ""
}

// isDuplicateKeyError reports a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	return sqlState(err) == codeUniqueViolation
}

// isUndefinedTableError reports a query against a table that does not exist.
func isUndefinedTableError(err error) bool {
	return sqlState(err) == codeUndefinedTable
}
