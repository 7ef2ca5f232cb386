package db

import (
	"errors"
	"regexp"
	"strings"
)

// ErrReturningUnsupported is returned when a RETURNING clause cannot be
// emulated: anything other than a single-row INSERT.
var ErrReturningUnsupported = errors.New("db: RETURNING is only emulated for single-row INSERT")

var (
	placeholderPattern = regexp.MustCompile(`\$(\d+)`)
	ilikePattern       = regexp.MustCompile(`(?i)\bILIKE\b`)
	returningPattern   = regexp.MustCompile(`(?is)\s+RETURNING\s+(.+?)\s*;?\s*$`)
	insertTablePattern = regexp.MustCompile(`(?is)^\s*INSERT\s+(?:OR\s+\w+\s+)?INTO\s+([\w."]+)`)
)

// Statement is a PostgreSQL-dialect statement rewritten for SQLite.
type Statement struct {
	SQL       string
	Verb      string
	Returning string
	Table     string
}

// Translate rewrites $n placeholders to SQLite's numbered ?n form, so a
// parameter binds by its index no matter where or how often it appears, and
// ILIKE to LIKE. Quoted literals and identifiers are left alone. A RETURNING
// clause is split off for emulation.
func Translate(query string) (Statement, error) {
	rewritten := rewriteOutsideQuotes(query, func(segment string) string {
		segment = placeholderPattern.ReplaceAllString(segment, "?${1}")
		return ilikePattern.ReplaceAllString(segment, "LIKE")
	})

	stmt := Statement{SQL: strings.TrimSpace(rewritten), Verb: verbOf(rewritten)}

	match := returningPattern.FindStringSubmatchIndex(stmt.SQL)
	if match == nil {
		return stmt, nil
	}
	if stmt.Verb != "INSERT" {
		return Statement{}, ErrReturningUnsupported
	}
	stmt.Returning = strings.TrimSpace(stmt.SQL[match[2]:match[3]])
	stmt.SQL = strings.TrimSpace(stmt.SQL[:match[0]])

	table := insertTablePattern.FindStringSubmatch(stmt.SQL)
	if table == nil {
		return Statement{}, ErrReturningUnsupported
	}
	stmt.Table = table[1]
	return stmt, nil
}

func verbOf(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func rewriteOutsideQuotes(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == 0 && (c == '\'' || c == '"'):
			b.WriteString(fn(s[start:i]))
			start = i
			quote = c
		case quote != 0 && c == quote:
			b.WriteString(s[start : i+1])
			start = i + 1
			quote = 0
		}
	}
	if quote != 0 {
		b.WriteString(s[start:])
	} else {
		b.WriteString(fn(s[start:]))
	}
	return b.String()
}
