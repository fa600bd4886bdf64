package archive

import (
	"strings"
)

// QueryBuilder converts queries written with ? placeholders to the
// dialect's placeholder syntax.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build rewrites each ? outside a single-quoted literal.
//
//	input:    "SELECT * FROM levels WHERE seed = ? AND depth = ?"
//	SQLite:   "SELECT * FROM levels WHERE seed = ? AND depth = ?"
//	Postgres: "SELECT * FROM levels WHERE seed = $1 AND depth = $2"
func (qb *QueryBuilder) Build(query string) string {
	if qb.dialect.Placeholder(1) == "?" {
		return query
	}

	var result strings.Builder
	position := 1
	quoted := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			result.WriteByte(c)
		case c == '?' && !quoted:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(c)
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause when the dialect has no
// LastInsertId.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
