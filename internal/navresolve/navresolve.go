// Package navresolve implements the navigation-property resolution
// order. It is shared by the validator (which only needs to
// know whether a nav-prop resolves, and to what target entity) and the
// transformer (which needs the full join shape), so the two stages can
// never disagree about what a nav-prop means.
package navresolve

import "github.com/imsquery/squerytranslate/internal/registry"

// Resolution is everything needed to emit a JOIN for a resolved nav-prop.
type Resolution struct {
	TargetTable     string
	TargetEntity    string
	LocalKey        string
	ForeignKey      string
	JoinType        string // always non-empty: "LEFT" unless overridden
	ResourceSubType string
	Source          string // "override" | "foreign_key" | "resource_nav_prop", for diagnostics
}

// Resolve looks a nav-prop up in three steps, in order: nav_overrides,
// then FK auto-deduction from table_fks, then (for resource entity type
// parents) resource_nav_props. The FK convention defaults (local_key
// "<navProp>_Id", foreign_key "Id") are applied whenever a matching
// step doesn't supply its own.
func Resolve(parentEntity, navProp string, reg *registry.Registry) (Resolution, bool) {
	defaultLocalKey := navProp + "_Id"
	const defaultForeignKey = "Id"

	if o, ok := reg.NavOverride(parentEntity, navProp); ok {
		res := Resolution{
			TargetTable:     o.TargetTable,
			TargetEntity:    o.TargetEntity,
			LocalKey:        o.LocalKey,
			ForeignKey:      o.ForeignKey,
			JoinType:        o.JoinType,
			ResourceSubType: o.ResourceSubType,
			Source:          "override",
		}
		if res.LocalKey == "" {
			res.LocalKey = defaultLocalKey
		}
		if res.ForeignKey == "" {
			res.ForeignKey = defaultForeignKey
		}
		if res.JoinType == "" {
			res.JoinType = "LEFT"
		}
		if res.TargetTable == "" && res.TargetEntity != "" {
			if t, ok := reg.Table(res.TargetEntity); ok {
				res.TargetTable = t
			}
		}
		if res.TargetEntity == "" {
			if res.TargetTable != "" {
				if e, ok := reg.Entity(res.TargetTable); ok {
					res.TargetEntity = e
				} else {
					res.TargetEntity = navProp
				}
			} else {
				res.TargetEntity = navProp
			}
		}
		return res, true
	}

	if parentTable, ok := reg.Table(parentEntity); ok {
		if fk, ok := reg.ForeignKeyFor(parentTable, defaultLocalKey); ok {
			targetEntity, ok := reg.Entity(fk.RefTable)
			if !ok {
				targetEntity = navProp
			}
			return Resolution{
				TargetTable:  fk.RefTable,
				TargetEntity: targetEntity,
				LocalKey:     defaultLocalKey,
				ForeignKey:   defaultForeignKey,
				JoinType:     "LEFT",
				Source:       "foreign_key",
			}, true
		}
	}

	if _, isResource := reg.ResourceEntityType(parentEntity); isResource {
		if p, ok := reg.ResourceNavProp(navProp); ok {
			localKey := p.LocalKey
			if localKey == "" {
				localKey = defaultLocalKey
			}
			foreignKey := p.ForeignKey
			if foreignKey == "" {
				foreignKey = defaultForeignKey
			}
			return Resolution{
				TargetTable:  p.TargetTable,
				TargetEntity: p.TargetEntity,
				LocalKey:     localKey,
				ForeignKey:   foreignKey,
				JoinType:     "LEFT",
				Source:       "resource_nav_prop",
			}, true
		}
	}

	return Resolution{}, false
}
