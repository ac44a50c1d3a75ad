package dbx

import (
	"strconv"
	"strings"
)

// Dialect names the SQL flavour a repository talks to.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
// Queries are written once with '?' and rebound for Postgres ($1, $2, ...).
// Question marks inside single-quoted literals are left untouched.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
