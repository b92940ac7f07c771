package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/tourbook-api/internal/query"
)

// columns maps the JSON field names of a query schema to SQL expressions.
type columns map[string]string

var sqlOps = map[query.Op]string{
	query.OpEq:  "=",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// sqlBuilder accumulates a statement and its positional arguments.
type sqlBuilder struct {
	sb   strings.Builder
	args []any
}

func newSQLBuilder(base string, args ...any) *sqlBuilder {
	b := &sqlBuilder{args: args}
	b.sb.WriteString(base)
	return b
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) String() string { return b.sb.String() }

// where renders the conditions of a resolved Spec. extra is prepended as a
// raw predicate, for example the active flag on users.
func (b *sqlBuilder) where(conds []query.Condition, cols columns, extra ...string) error {
	preds := append([]string(nil), extra...)
	for _, c := range conds {
		col, ok := cols[c.Field]
		if !ok {
			return fmt.Errorf("unsupported filter field %q", c.Field)
		}
		if c.Op == query.OpIn {
			values, ok := c.Value.([]any)
			if !ok || len(values) == 0 {
				return fmt.Errorf("invalid value list for %q", c.Field)
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				placeholders[i] = b.arg(v)
			}
			preds = append(preds, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
			continue
		}
		op, ok := sqlOps[c.Op]
		if !ok {
			return fmt.Errorf("unsupported operator %q", c.Op)
		}
		preds = append(preds, fmt.Sprintf("%s %s %s", col, op, b.arg(c.Value)))
	}
	if len(preds) > 0 {
		b.sb.WriteString(" WHERE ")
		b.sb.WriteString(strings.Join(preds, " AND "))
	}
	return nil
}

// orderBy renders the sort keys followed by the id tie-break.
func (b *sqlBuilder) orderBy(keys []query.SortKey, cols columns) {
	idCol := cols[query.IDField]
	parts := make([]string, 0, len(keys)+1)
	seenID := false
	for _, k := range keys {
		col, ok := cols[k.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
		seenID = seenID || k.Field == query.IDField
	}
	if !seenID {
		parts = append(parts, idCol+" ASC")
	}
	b.sb.WriteString(" ORDER BY ")
	b.sb.WriteString(strings.Join(parts, ", "))
}

func (b *sqlBuilder) page(spec query.Spec) {
	b.sb.WriteString(" LIMIT " + b.arg(spec.Limit()))
	b.sb.WriteString(" OFFSET " + b.arg(spec.Skip()))
}

// renderList builds a complete list statement for a resolved Spec.
func renderList(base string, spec query.Spec, cols columns, extra ...string) (string, []any, error) {
	b := newSQLBuilder(base)
	if err := b.where(spec.Conditions(), cols, extra...); err != nil {
		return "", nil, err
	}
	b.orderBy(spec.Sort(), cols)
	b.page(spec)
	return b.String(), b.args, nil
}
