package store

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the store reacts to
const (
	codeUndefinedFunction pq.ErrorCode = "42883"
	codeUndefinedTable    pq.ErrorCode = "42P01"
)

func isUndefinedFunction(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUndefinedFunction
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUndefinedTable
}
