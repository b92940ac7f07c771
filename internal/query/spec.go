package query

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Op is a comparison operator.
type Op string

// Supported operators. OpIn is only produced by Schema.Resolve from
// repeated values of whitelisted fields.
const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

var bracketOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Reserved query parameters that never become filter conditions.
var reserved = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
	"filter": {},
}

// Defaults applied when the request does not specify them.
const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "-createdAt"
	IDField      = "id"
)

// Condition is one filter predicate. Raw holds the query-string values
// until Schema.Resolve sets Value; For OpIn, Value is a []any.
type Condition struct {
	Field string
	Op    Op
	Raw   []string
	Value any
}

// Resolved reports whether the condition carries a typed value.
func (c Condition) Resolved() bool {
	return c.Value != nil
}

// SortKey orders results by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Options tune FromValues.
type Options struct {
	DefaultLimit int
	// MaxLimit clamps the limit parameter. Zero disables the clamp.
	MaxLimit int
}

// Spec is an immutable list query. Every method returns a new value and
// never aliases the receiver's slices.
type Spec struct {
	conditions []Condition
	sort       []SortKey
	include    []string
	exclude    []string
	page       int
	limit      int
}

// New returns an empty Spec with default sorting and paging.
func New(opts Options) Spec {
	limit := opts.DefaultLimit
	if limit < 1 {
		limit = DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		limit = opts.MaxLimit
	}
	return Spec{
		sort:  parseSort(DefaultSort),
		page:  DefaultPage,
		limit: limit,
	}
}

// FromValues translates a query string. It runs filter, sort, select and
// paginate in that order and never fails; unparseable paging values fall
// back to their defaults.
func FromValues(values url.Values, opts Options) Spec {
	s := New(opts)
	s.conditions = parseFilter(values)
	if raw := values.Get("sort"); raw != "" {
		if keys := parseSort(raw); len(keys) > 0 {
			s.sort = keys
		}
	}
	if raw := values.Get("fields"); raw != "" {
		s.include, s.exclude = parseFields(raw)
	}
	s.page = parsePositive(values.Get("page"), DefaultPage)
	s.limit = parsePositive(values.Get("limit"), s.limit)
	if opts.MaxLimit > 0 && s.limit > opts.MaxLimit {
		s.limit = opts.MaxLimit
	}
	s.page = clampPage(s.page, s.limit)
	return s
}

func parseFilter(values url.Values) []Condition {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var conds []Condition
	for _, key := range keys {
		if _, ok := reserved[key]; ok {
			continue
		}
		if strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
			continue
		}
		field, op, ok := splitKey(key)
		if !ok {
			continue
		}
		raw := values[key]
		if len(raw) == 0 {
			continue
		}
		conds = append(conds, Condition{Field: field, Op: op, Raw: slices.Clone(raw)})
	}
	return conds
}

// splitKey parses "field" or "field[op]".
func splitKey(key string) (string, Op, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, key != ""
	}
	if open == 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	op, ok := bracketOps[key[open+1:len(key)-1]]
	if !ok {
		return "", "", false
	}
	field := key[:open]
	if strings.HasPrefix(field, "$") {
		return "", "", false
	}
	return field, op, true
}

func parseSort(raw string) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		if part == "" || strings.HasPrefix(part, "$") {
			continue
		}
		keys = append(keys, SortKey{Field: part, Desc: desc})
	}
	return keys
}

func parseFields(raw string) (include, exclude []string) {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "" || part == "-":
			continue
		case strings.HasPrefix(part, "-"):
			if f := part[1:]; f != IDField {
				exclude = append(exclude, f)
			}
		default:
			include = append(include, part)
		}
	}
	return include, exclude
}

func parsePositive(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	if n < 1 {
		return 1
	}
	return n
}

// clampPage caps page so that Skip cannot overflow int.
func clampPage(page, limit int) int {
	if limit > 0 && page-1 > math.MaxInt/limit {
		return math.MaxInt/limit + 1
	}
	return page
}

// Conditions returns a copy of the filter conditions.
func (s Spec) Conditions() []Condition {
	return slices.Clone(s.conditions)
}

// Sort returns a copy of the sort keys.
func (s Spec) Sort() []SortKey {
	return slices.Clone(s.sort)
}

// Include returns the explicitly selected fields, or nil when every field
// is selected.
func (s Spec) Include() []string {
	return slices.Clone(s.include)
}

// Exclude returns the fields removed from the selection.
func (s Spec) Exclude() []string {
	return slices.Clone(s.exclude)
}

// Selects reports whether the Spec narrows the returned fields.
func (s Spec) Selects() bool {
	return len(s.include) > 0 || len(s.exclude) > 0
}

// Page is the 1-based page number.
func (s Spec) Page() int { return s.page }

// Limit is the page size.
func (s Spec) Limit() int { return s.limit }

// Skip is the number of records before the page.
func (s Spec) Skip() int { return (s.page - 1) * s.limit }

// Where returns a copy of s with an already typed condition appended.
func (s Spec) Where(field string, op Op, value any) Spec {
	out := s.clone()
	out.conditions = append(out.conditions, Condition{Field: field, Op: op, Value: value})
	return out
}

// OrderBy returns a copy of s with the sort keys replaced.
func (s Spec) OrderBy(keys ...SortKey) Spec {
	out := s.clone()
	out.sort = slices.Clone(keys)
	return out
}

// Select returns a copy of s selecting only fields.
func (s Spec) Select(fields ...string) Spec {
	out := s.clone()
	out.include = slices.Clone(fields)
	out.exclude = nil
	return out
}

// Paginate returns a copy of s with the page window replaced.
func (s Spec) Paginate(page, limit int) Spec {
	out := s.clone()
	out.limit = max(limit, 1)
	out.page = clampPage(max(page, 1), out.limit)
	return out
}

func (s Spec) clone() Spec {
	return Spec{
		conditions: slices.Clone(s.conditions),
		sort:       slices.Clone(s.sort),
		include:    slices.Clone(s.include),
		exclude:    slices.Clone(s.exclude),
		page:       s.page,
		limit:      s.limit,
	}
}

// Selected reports whether field survives the selection.
func (s Spec) Selected(field string) bool {
	if field == IDField {
		return true
	}
	if len(s.include) > 0 {
		return slices.Contains(s.include, field)
	}
	return !slices.Contains(s.exclude, field)
}
