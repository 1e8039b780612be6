package transform

import (
	"sort"
	"strconv"
	"strings"

	"github.com/imsquery/squerytranslate/internal/ast"
)

// Builder is the transient per-translation SQL Builder state: a select
// list, FROM target, ordered JOIN fragments, an optional WHERE fragment,
// ORDER BY list, TOP/paging, a parameter table keyed `@pN`, and the
// alias→entity map the transformer fills in as it resolves joins. It
// belongs to exactly one translation and is never shared.
type Builder struct {
	selectList []string
	fromTable  string
	fromAlias  string
	joins      []string
	whereText  string
	orderBy    []string
	top        int
	offset     int
	limit      int

	params       map[string]ast.Value
	paramCounter int

	aliasEntity map[string]string
}

// NewBuilder starts a Builder rooted at fromAlias/fromTable.
func NewBuilder(fromAlias, fromTable string) *Builder {
	return &Builder{
		fromAlias:   fromAlias,
		fromTable:   fromTable,
		params:      map[string]ast.Value{},
		aliasEntity: map[string]string{},
	}
}

// BindAlias records an alias→entity binding as a join is resolved. Every
// alias referenced in the output SQL is bound in this map at the point
// it's emitted.
func (b *Builder) BindAlias(alias, entity string) {
	b.aliasEntity[alias] = entity
}

func (b *Builder) AddJoin(fragment string) {
	b.joins = append(b.joins, fragment)
}

func (b *Builder) SetSelect(fields []string) {
	b.selectList = fields
}

func (b *Builder) SetWhere(text string) {
	b.whereText = text
}

func (b *Builder) AddOrderBy(fragment string) {
	b.orderBy = append(b.orderBy, fragment)
}

func (b *Builder) SetTop(n int) {
	b.top = n
}

func (b *Builder) SetPaging(offset, limit int) {
	b.offset = offset
	b.limit = limit
}

// NextParam allocates the next `@pN` placeholder for value and returns
// it. Names are unique and contiguous from @p1.
func (b *Builder) NextParam(value ast.Value) string {
	b.paramCounter++
	name := "@p" + strconv.Itoa(b.paramCounter)
	b.params[name] = value
	return name
}

// Params returns the parameter table built so far (pre-inlining), for
// the caller-facing result alongside the final inlined SQL.
func (b *Builder) Params() map[string]ast.Value {
	return b.params
}

// Assemble composes the final SQL string:
// SELECT/FROM/JOIN/WHERE/ORDER BY/TOP/paging clauses, then literal
// inlining of every `@pN` placeholder, longest-key-first so `@p10` is
// never shadowed by a substring match against `@p1`.
func (b *Builder) Assemble() string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if b.top > 0 {
		sb.WriteString("TOP ")
		sb.WriteString(strconv.Itoa(b.top))
		sb.WriteString(" ")
	}
	if len(b.selectList) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.selectList, ", "))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(b.fromTable)
	sb.WriteString(" ")
	sb.WriteString(b.fromAlias)

	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	if b.whereText != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(b.whereText)
	}

	orderBy := b.orderBy
	needsPaging := b.top == 0 && (b.offset > 0 || b.limit > 0)
	if needsPaging && len(orderBy) == 0 {
		orderBy = []string{"(SELECT NULL)"}
	}
	if len(orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderBy, ", "))
	}

	if needsPaging {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(b.offset))
		sb.WriteString(" ROWS")
		if b.limit > 0 {
			sb.WriteString(" FETCH NEXT ")
			sb.WriteString(strconv.Itoa(b.limit))
			sb.WriteString(" ROWS ONLY")
		}
	}

	return inline(sb.String(), b.params)
}

// inline substitutes every `@pN` placeholder with its formatted literal,
// longest key first so `@p10` can't be shadowed by a partial match
// against `@p1`.
func inline(sql string, params map[string]ast.Value) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		sql = strings.ReplaceAll(sql, k, formatLiteral(params[k]))
	}
	return sql
}

// formatLiteral renders a Value as SQL Server literal text.
func formatLiteral(v ast.Value) string {
	switch val := v.(type) {
	case ast.NullValue:
		return "NULL"
	case ast.BoolValue:
		if val {
			return "1"
		}
		return "0"
	case ast.Number:
		return val.String()
	case ast.StrValue:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case ast.ColumnRef:
		return val.Alias + "." + val.Field
	}
	return ""
}
