// Package validator walks a Query AST against the Schema Registry,
// building alias scope and separating fatal errors from warnings the
// translation can continue past.
package validator

import (
	"strings"

	"github.com/imsquery/squerytranslate/internal/ast"
	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/navresolve"
	"github.com/imsquery/squerytranslate/internal/registry"
)

const (
	maxWhereDepth  = 10
	maxStringLen   = 4000
	maxRecommended = 10000
)

// Validate runs the two-phase check: scope construction over the joins
// in source order, then reference checking of every SELECT/WHERE/ORDER
// BY field, then the structural checks on top and nesting. It returns
// the built Scope so the transformer can reuse it instead of re-deriving
// alias bindings.
func Validate(q *ast.Query, rootEntity string, reg *registry.Registry, report *diag.Report) (*Scope, error) {
	if _, ok := reg.Table(rootEntity); !ok {
		return nil, diag.NewUnknownEntity(rootEntity)
	}
	rootAlias, ok := reg.Alias(rootEntity)
	if !ok {
		// No declared alias for the root entity: fall back to the entity
		// name itself rather than failing. An unaliased root is still a
		// valid FROM target.
		rootAlias = rootEntity
	}

	scope := newScope()
	scope.rootAlias = rootAlias
	scope.bind(rootAlias, rootEntity)

	for _, j := range q.Joins {
		if existing, collides := scope.CollidesCaseInsensitive(j.Alias); collides {
			withRoot := strings.EqualFold(existing, rootAlias)
			return nil, diag.NewAliasCollision(j.Alias, withRoot)
		}

		parentAlias := j.ParentAlias
		if parentAlias == "" {
			parentAlias = rootAlias
		}
		parentEntity, ok := scope.EntityFor(parentAlias)
		if !ok {
			return nil, diag.NewUndeclaredAlias(diag.ClauseJoin, parentAlias, scope.Available())
		}

		res, found := navresolve.Resolve(parentEntity, j.NavProp, reg)
		if !found {
			report.Warn(diag.ClauseJoin,
				"unresolved navigation property %q on entity %q; the LEFT JOIN was skipped; add %q to navigationPropertyOverrides for entity %q",
				j.NavProp, parentEntity, j.NavProp, parentEntity)
			scope.bindUnresolved(j.Alias, j.NavProp)
			continue
		}
		scope.bind(j.Alias, res.TargetEntity)
	}

	for _, f := range q.Select {
		if err := checkFieldRef(diag.ClauseSelect, f, rootAlias, scope, reg, report); err != nil {
			return nil, err
		}
	}
	for _, s := range q.OrderBy {
		if err := checkFieldRef(diag.ClauseOrderBy, s.Field, rootAlias, scope, reg, report); err != nil {
			return nil, err
		}
	}
	if q.Where != nil {
		if err := checkWhere(q.Where, rootAlias, scope, reg, report, 0); err != nil {
			return nil, err
		}
	}

	if err := checkStructural(q, report); err != nil {
		return nil, err
	}

	return scope, nil
}

func checkFieldRef(clause diag.Clause, f ast.FieldRef, rootAlias string, scope *Scope, reg *registry.Registry, report *diag.Report) error {
	alias := f.Alias
	if alias == "" {
		alias = rootAlias
	}
	entity, ok := scope.EntityFor(alias)
	if !ok {
		return diag.NewUndeclaredAlias(clause, alias, scope.Available())
	}
	if scope.IsUnresolved(alias) {
		return nil
	}
	table, ok := reg.Table(entity)
	if !ok {
		return nil
	}
	has, known := reg.HasColumn(table, f.Field)
	if known && !has {
		report.Warn(clause, "unknown column %q on entity %q (typo, navigation property, or computed field?)", f.Field, entity)
	}
	return nil
}

func checkWhere(expr ast.WhereExpr, rootAlias string, scope *Scope, reg *registry.Registry, report *diag.Report, depth int) error {
	if depth > maxWhereDepth {
		report.Warn(diag.ClauseWhere, "WHERE expression nesting exceeds %d; not descending further", maxWhereDepth)
		return nil
	}
	switch e := expr.(type) {
	case ast.Compare:
		if err := checkFieldRef(diag.ClauseWhere, e.Field, rootAlias, scope, reg, report); err != nil {
			return err
		}
		if s, ok := e.Value.(ast.StrValue); ok && len(string(s)) > maxStringLen {
			report.Warn(diag.ClauseWhere, "string value for %q exceeds %d characters", e.Field, maxStringLen)
		}
		if cr, ok := e.Value.(ast.ColumnRef); ok {
			return checkFieldRef(diag.ClauseWhere, ast.FieldRef(cr), rootAlias, scope, reg, report)
		}
		return nil
	case ast.Logical:
		if err := checkWhere(e.Left, rootAlias, scope, reg, report, depth+1); err != nil {
			return err
		}
		return checkWhere(e.Right, rootAlias, scope, reg, report, depth+1)
	case ast.Not:
		return checkWhere(e.Child, rootAlias, scope, reg, report, depth+1)
	}
	return diag.NewInternal("unreachable WhereExpr variant %T", expr)
}

func checkStructural(q *ast.Query, report *diag.Report) error {
	if q.Top < 0 {
		return diag.NewNegativeTop(q.Top)
	}
	if q.Top > maxRecommended {
		report.Warn(diag.ClauseTop, "top value %d exceeds the recommended maximum of %d", q.Top, maxRecommended)
	}
	if len(q.Select) == 0 && q.Where == nil && len(q.Joins) == 0 && len(q.OrderBy) == 0 && q.Top == 0 {
		report.Warn("", "empty SQuery: no select, where, join, order by, or top clause; selecting every column with no filter")
	}
	return nil
}
