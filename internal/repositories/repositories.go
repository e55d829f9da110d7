package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence bumps the counter in table's "<table>_sequence" row and returns the new value.
//
// Pass the *sql.Tx that inserts the row so a rolled back insert does not consume a number.
func NextSequence(q rowQuerier, table string) (int, error) {
	if table == "" || strings.ContainsFunc(table, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		return 0, fmt.Errorf("invalid sequence table %q", table)
	}

	var seq int
	err := q.QueryRow("UPDATE " + table + "_sequence SET value = value + 1 WHERE id = 1 RETURNING value").Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sequence for %s is not initialized", table)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return seq, nil
}
