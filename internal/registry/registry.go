// Package registry holds the Schema Registry: a
// read-only, process-wide view of entity-to-table bindings, columns,
// foreign keys, navigation-property overrides, column rename rules and
// resource entity types. It is data-only: external loaders (see
// loader/csvloader, loader/overlay, loader/mssqlintrospect) populate a
// Builder and hand over a frozen Registry; the core never mutates one.
package registry

// ForeignKey is one entry of table_fks: a local column's target.
type ForeignKey struct {
	RefTable  string
	RefColumn string
}

// NavOverride is a nav_overrides entry.
type NavOverride struct {
	TargetTable     string
	TargetEntity    string
	LocalKey        string
	ForeignKey      string
	JoinType        string // "", "LEFT", "INNER"; "" defaults to LEFT at transform time
	ResourceSubType string
}

// ResourceEntityType describes a concrete subtype of the polymorphic
// UR_Resources table.
type ResourceEntityType struct {
	EntityTypeID int
	Alias        string
	Columns      map[string]string // property name -> base-32 "C..." column
}

// ResourceNavProp is a resource_nav_props entry; TargetTable defaults to
// UR_Resources when loaders leave it blank.
type ResourceNavProp struct {
	TargetTable  string
	TargetEntity string
	LocalKey     string
	ForeignKey   string
}

// Registry is the immutable, read-only Schema Registry. Build one with
// Builder, never by constructing this struct directly: its maps are
// not safe to mutate once Freeze returns.
type Registry struct {
	entityToTable         map[string]string
	tableToEntity         map[string]string
	entityAlias           map[string]string
	tableColumns          map[string]map[string]bool
	tableFKs              map[string]map[string]ForeignKey
	navOverrides          map[string]map[string]NavOverride
	globalColumnRenames   map[string]string
	entityColumnOverrides map[string]map[string]string
	resourceEntityTypes   map[string]ResourceEntityType
	resourceNavProps      map[string]ResourceNavProp
}

// Table returns the raw table name bound to entity, and whether it exists.
func (r *Registry) Table(entity string) (string, bool) {
	t, ok := r.entityToTable[entity]
	return t, ok
}

// Entity returns the entity name bound to a raw table name (the inverse
// of Table), and whether it exists.
func (r *Registry) Entity(table string) (string, bool) {
	e, ok := r.tableToEntity[table]
	return e, ok
}

// Alias returns the short SQL alias declared for entity.
func (r *Registry) Alias(entity string) (string, bool) {
	a, ok := r.entityAlias[entity]
	return a, ok
}

// HasColumn reports whether table's known column set contains col. When
// a table's column set was never loaded, known is false and callers
// should skip the "unknown column" check entirely.
func (r *Registry) HasColumn(table, col string) (has bool, known bool) {
	cols, ok := r.tableColumns[table]
	if !ok {
		return false, false
	}
	return cols[col], true
}

// ForeignKeyFor returns the declared FK for localColumn on table.
func (r *Registry) ForeignKeyFor(table, localColumn string) (ForeignKey, bool) {
	fks, ok := r.tableFKs[table]
	if !ok {
		return ForeignKey{}, false
	}
	fk, ok := fks[localColumn]
	return fk, ok
}

// NavOverride returns the declared override for entity.navProp.
func (r *Registry) NavOverride(entity, navProp string) (NavOverride, bool) {
	byEntity, ok := r.navOverrides[entity]
	if !ok {
		return NavOverride{}, false
	}
	o, ok := byEntity[navProp]
	return o, ok
}

// GlobalColumnRename returns the global rewrite for field, if any.
func (r *Registry) GlobalColumnRename(field string) (string, bool) {
	c, ok := r.globalColumnRenames[field]
	return c, ok
}

// EntityColumnOverride returns the per-entity rewrite for entity.field.
func (r *Registry) EntityColumnOverride(entity, field string) (string, bool) {
	byEntity, ok := r.entityColumnOverrides[entity]
	if !ok {
		return "", false
	}
	c, ok := byEntity[field]
	return c, ok
}

// ResourceEntityType returns the resource-subtype metadata for entity.
func (r *Registry) ResourceEntityType(entity string) (ResourceEntityType, bool) {
	t, ok := r.resourceEntityTypes[entity]
	return t, ok
}

// ResourceNavProp returns the resource_nav_props entry for navProp.
func (r *Registry) ResourceNavProp(navProp string) (ResourceNavProp, bool) {
	p, ok := r.resourceNavProps[navProp]
	return p, ok
}

// QualifyTable wraps a raw table name as `[dbo].[name]` unless it already
// carries a schema prefix (contains a '.').
func QualifyTable(raw string) string {
	if containsDot(raw) {
		parts := splitOnce(raw, '.')
		return bracket(parts[0]) + "." + bracket(parts[1])
	}
	return "[dbo]." + bracket(raw)
}

func bracket(s string) string {
	return "[" + s + "]"
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

func splitOnce(s string, sep byte) [2]string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return [2]string{s[:i], s[i+1:]}
		}
	}
	return [2]string{s, ""}
}
