package store

import (
	"fmt"
	"regexp"
)

// DefaultTable is the table records are written to.
const DefaultTable = "dict"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// TableName returns the table to use, falling back to DefaultTable, and
// rejects anything that is not a plain SQL identifier.
func TableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}
