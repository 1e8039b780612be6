// Package transform walks a validated Query AST, resolves joins and
// column references against the Schema Registry, and feeds a SQL
// Builder. This is where navigation-property resolution,
// the resource-entity polymorphic join, and column-name rewriting all
// live; the validator has already established that every alias here is
// bound, so this package focuses purely on SQL shape.
package transform

import (
	"fmt"
	"strings"

	"github.com/imsquery/squerytranslate/internal/ast"
	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/navresolve"
	"github.com/imsquery/squerytranslate/internal/registry"
	"github.com/imsquery/squerytranslate/internal/validator"
)

// Transform walks q and returns the filled Builder. scope is the one
// validator.Validate already built for this query.
func Transform(q *ast.Query, rootEntity string, scope *validator.Scope, reg *registry.Registry, report *diag.Report) (*Builder, error) {
	rootAlias := scope.RootAlias()
	rootTable, _ := reg.Table(rootEntity) // validator already confirmed this exists

	b := NewBuilder(rootAlias, registry.QualifyTable(rootTable))
	b.BindAlias(rootAlias, rootEntity)

	var rootTypeFilter string
	if ret, isResource := reg.ResourceEntityType(rootEntity); isResource {
		if ret.EntityTypeID == 0 {
			etTable := registry.QualifyTable("UM_EntityTypes")
			b.AddJoin(fmt.Sprintf(
				"INNER JOIN %s %s_et ON %s_et.Id = %s.Type AND %s_et.Identifier = '%s'",
				etTable, rootAlias, rootAlias, rootAlias, rootAlias, rootEntity))
		} else {
			rootTypeFilter = fmt.Sprintf("%s.Type = %d", rootAlias, ret.EntityTypeID)
		}
	}

	for _, j := range q.Joins {
		if scope.IsUnresolved(j.Alias) {
			// An unresolved nav-prop emits no JOIN (the validator already
			// warned), but its alias can still show up in the select list,
			// so it stays bound.
			entity, _ := scope.EntityFor(j.Alias)
			b.BindAlias(j.Alias, entity)
			continue
		}
		parentAlias := j.ParentAlias
		if parentAlias == "" {
			parentAlias = rootAlias
		}
		parentEntity, _ := scope.EntityFor(parentAlias)

		res, found := navresolve.Resolve(parentEntity, j.NavProp, reg)
		if !found {
			return nil, diag.NewInternal("join alias %q was validated as resolved but navresolve.Resolve failed", j.Alias)
		}
		b.BindAlias(j.Alias, res.TargetEntity)

		targetTable := registry.QualifyTable(res.TargetTable)
		if res.ResourceSubType != "" {
			etTable := registry.QualifyTable("UM_EntityTypes")
			b.AddJoin(fmt.Sprintf("LEFT JOIN %s %s_et ON %s_et.Identifier = '%s'",
				etTable, j.Alias, j.Alias, res.ResourceSubType))
			b.AddJoin(fmt.Sprintf("LEFT JOIN %s %s ON %s.%s = %s.%s AND %s.Type = %s_et.Id",
				targetTable, j.Alias, parentAlias, res.LocalKey, j.Alias, res.ForeignKey, j.Alias, j.Alias))
		} else {
			b.AddJoin(fmt.Sprintf("%s JOIN %s %s ON %s.%s = %s.%s",
				res.JoinType, targetTable, j.Alias, parentAlias, res.LocalKey, j.Alias, res.ForeignKey))
		}
	}

	selectFields := make([]string, 0, len(q.Select))
	for _, f := range q.Select {
		selectFields = append(selectFields, resolveFieldRef(f, rootAlias, scope, reg))
	}
	b.SetSelect(selectFields)

	for _, s := range q.OrderBy {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		b.AddOrderBy(resolveFieldRef(s.Field, rootAlias, scope, reg) + " " + dir)
	}

	var userWhere string
	if q.Where != nil {
		userWhere = emitWhere(q.Where, rootAlias, scope, reg, b)
	}
	b.SetWhere(combineWhere(rootTypeFilter, userWhere))

	b.SetTop(q.Top)

	return b, nil
}

// combineWhere keeps the root resource-type filter and the user's WHERE
// as independent fragments, simply AND-combined when both are present.
func combineWhere(rootTypeFilter, userWhere string) string {
	switch {
	case rootTypeFilter != "" && userWhere != "":
		return fmt.Sprintf("%s AND (%s)", rootTypeFilter, userWhere)
	case rootTypeFilter != "":
		return rootTypeFilter
	default:
		return userWhere
	}
}

// resolveFieldRef resolves a FieldRef to its emitted `alias.column`
// text. Fields on an alias the validator marked unresolved pass through
// unrewritten: there is no known entity to rewrite against.
func resolveFieldRef(f ast.FieldRef, rootAlias string, scope *validator.Scope, reg *registry.Registry) string {
	alias := f.Alias
	if alias == "" {
		alias = rootAlias
	}
	if scope.IsUnresolved(alias) {
		return alias + "." + f.Field
	}
	entity, _ := scope.EntityFor(alias)
	return alias + "." + rewriteColumn(entity, f.Field, reg)
}

// rewriteColumn applies the column rewrite rules in order, returning on
// first match: per-entity override, resource C-column map (retried with
// a trailing _Id stripped), global rename, then the FooId -> Foo_Id FK
// convention.
func rewriteColumn(entity, col string, reg *registry.Registry) string {
	if v, ok := reg.EntityColumnOverride(entity, col); ok {
		return v
	}
	if ret, ok := reg.ResourceEntityType(entity); ok {
		if v, ok := ret.Columns[col]; ok {
			return v
		}
		if strings.HasSuffix(col, "_Id") && len(col) > 3 {
			stripped := col[:len(col)-len("_Id")]
			if v, ok := ret.Columns[stripped]; ok {
				return v
			}
		}
	}
	if v, ok := reg.GlobalColumnRename(col); ok {
		return v
	}
	if col != "Id" && strings.HasSuffix(col, "Id") && !strings.HasSuffix(col, "_Id") {
		return col[:len(col)-len("Id")] + "_Id"
	}
	return col
}

// emitWhere recursively renders a WhereExpr, parenthesizing each
// Logical node so operator precedence survives textually.
func emitWhere(expr ast.WhereExpr, rootAlias string, scope *validator.Scope, reg *registry.Registry, b *Builder) string {
	switch e := expr.(type) {
	case ast.Compare:
		return emitCompare(e, rootAlias, scope, reg, b)
	case ast.Logical:
		left := emitWhere(e.Left, rootAlias, scope, reg, b)
		right := emitWhere(e.Right, rootAlias, scope, reg, b)
		return fmt.Sprintf("(%s %s %s)", left, e.Op, right)
	case ast.Not:
		return fmt.Sprintf("NOT (%s)", emitWhere(e.Child, rootAlias, scope, reg, b))
	}
	return ""
}

func emitCompare(c ast.Compare, rootAlias string, scope *validator.Scope, reg *registry.Registry, b *Builder) string {
	resolved := resolveFieldRef(c.Field, rootAlias, scope, reg)

	if _, isNull := c.Value.(ast.NullValue); isNull {
		switch c.Op {
		case ast.OpEq:
			return resolved + " IS NULL"
		case ast.OpNeq:
			return resolved + " IS NOT NULL"
		default:
			return fmt.Sprintf("%s %s NULL", resolved, c.Op)
		}
	}

	if c.Op == ast.OpLike || c.Op == ast.OpLikeBoth {
		pattern := "%" + valueText(c.Value) + "%"
		param := b.NextParam(ast.StrValue(pattern))
		return resolved + " LIKE " + param
	}

	if colRef, ok := c.Value.(ast.ColumnRef); ok {
		return resolved + " " + string(c.Op) + " " + resolveFieldRef(ast.FieldRef(colRef), rootAlias, scope, reg)
	}

	param := b.NextParam(c.Value)
	return resolved + " " + string(c.Op) + " " + param
}

// valueText renders a Value as plain text for building a LIKE pattern,
// distinct from formatLiteral's SQL-literal quoting.
func valueText(v ast.Value) string {
	switch val := v.(type) {
	case ast.StrValue:
		return string(val)
	case ast.Number:
		return val.String()
	case ast.BoolValue:
		if val {
			return "true"
		}
		return "false"
	case ast.NullValue:
		return ""
	}
	return ""
}
