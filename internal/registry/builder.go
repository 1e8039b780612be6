package registry

import "sync/atomic"

// Builder accumulates Schema Registry entries before Freeze produces an
// immutable Registry. Loaders (loader/csvloader, loader/overlay,
// loader/mssqlintrospect) each take a *Builder so a caller can compose
// several sources (e.g. a CSV base layered with a YAML overlay) into
// one registry, applied in the order the caller chooses.
type Builder struct {
	entityToTable         map[string]string
	entityAlias           map[string]string
	tableColumns          map[string]map[string]bool
	tableFKs              map[string]map[string]ForeignKey
	navOverrides          map[string]map[string]NavOverride
	globalColumnRenames   map[string]string
	entityColumnOverrides map[string]map[string]string
	resourceEntityTypes   map[string]ResourceEntityType
	resourceNavProps      map[string]ResourceNavProp
}

// NewBuilder returns an empty Builder ready for loaders to populate.
func NewBuilder() *Builder {
	return &Builder{
		entityToTable:         map[string]string{},
		entityAlias:           map[string]string{},
		tableColumns:          map[string]map[string]bool{},
		tableFKs:              map[string]map[string]ForeignKey{},
		navOverrides:          map[string]map[string]NavOverride{},
		globalColumnRenames:   map[string]string{},
		entityColumnOverrides: map[string]map[string]string{},
		resourceEntityTypes:   map[string]ResourceEntityType{},
		resourceNavProps:      map[string]ResourceNavProp{},
	}
}

// BindEntity records entity_to_table (and its inverse) for entity.
func (b *Builder) BindEntity(entity, table string) {
	b.entityToTable[entity] = table
}

// SetAlias records entity_alias for entity.
func (b *Builder) SetAlias(entity, alias string) {
	b.entityAlias[entity] = alias
}

// SetColumns replaces table_columns for table.
func (b *Builder) SetColumns(table string, columns []string) {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	b.tableColumns[table] = set
}

// AddColumn adds one column to table's known column set, creating it if absent.
func (b *Builder) AddColumn(table, column string) {
	if b.tableColumns[table] == nil {
		b.tableColumns[table] = map[string]bool{}
	}
	b.tableColumns[table][column] = true
}

// SetForeignKey records a table_fks entry: table.localColumn -> (refTable, refColumn).
func (b *Builder) SetForeignKey(table, localColumn, refTable, refColumn string) {
	if b.tableFKs[table] == nil {
		b.tableFKs[table] = map[string]ForeignKey{}
	}
	b.tableFKs[table][localColumn] = ForeignKey{RefTable: refTable, RefColumn: refColumn}
}

// SetNavOverride records a nav_overrides entry for entity.navProp.
func (b *Builder) SetNavOverride(entity, navProp string, o NavOverride) {
	if b.navOverrides[entity] == nil {
		b.navOverrides[entity] = map[string]NavOverride{}
	}
	b.navOverrides[entity][navProp] = o
}

// SetGlobalColumnRename records a global_column_renames entry.
func (b *Builder) SetGlobalColumnRename(field, column string) {
	b.globalColumnRenames[field] = column
}

// SetEntityColumnOverride records an entity_column_overrides entry.
func (b *Builder) SetEntityColumnOverride(entity, field, column string) {
	if b.entityColumnOverrides[entity] == nil {
		b.entityColumnOverrides[entity] = map[string]string{}
	}
	b.entityColumnOverrides[entity][field] = column
}

// SetResourceEntityType records a resource_entity_types entry.
func (b *Builder) SetResourceEntityType(entity string, t ResourceEntityType) {
	if t.Columns == nil {
		t.Columns = map[string]string{}
	}
	b.resourceEntityTypes[entity] = t
}

// SetResourceColumn adds one property->C-column mapping to an already
// declared resource entity type.
func (b *Builder) SetResourceColumn(entity, prop, column string) {
	t, ok := b.resourceEntityTypes[entity]
	if !ok {
		t = ResourceEntityType{Columns: map[string]string{}}
	}
	if t.Columns == nil {
		t.Columns = map[string]string{}
	}
	t.Columns[prop] = column
	b.resourceEntityTypes[entity] = t
}

// SetResourceNavProp records a resource_nav_props entry.
func (b *Builder) SetResourceNavProp(navProp string, p ResourceNavProp) {
	if p.TargetTable == "" {
		p.TargetTable = "UR_Resources"
	}
	b.resourceNavProps[navProp] = p
}

// Freeze produces the immutable Registry. The Builder should not be
// reused afterward; Freeze does not deep-copy its maps.
func (b *Builder) Freeze() *Registry {
	tableToEntity := make(map[string]string, len(b.entityToTable))
	for entity, table := range b.entityToTable {
		tableToEntity[table] = entity
	}
	return &Registry{
		entityToTable:         b.entityToTable,
		tableToEntity:         tableToEntity,
		entityAlias:           b.entityAlias,
		tableColumns:          b.tableColumns,
		tableFKs:              b.tableFKs,
		navOverrides:          b.navOverrides,
		globalColumnRenames:   b.globalColumnRenames,
		entityColumnOverrides: b.entityColumnOverrides,
		resourceEntityTypes:   b.resourceEntityTypes,
		resourceNavProps:      b.resourceNavProps,
	}
}

// Holder lets many translations share one Registry concurrently while a
// background reloader swaps in a new one atomically by reference.
// In-flight translations keep the Registry they started with.
type Holder struct {
	ptr atomic.Pointer[Registry]
}

// NewHolder wraps an initial Registry for atomic hot-swapping.
func NewHolder(initial *Registry) *Holder {
	h := &Holder{}
	h.ptr.Store(initial)
	return h
}

// Load returns the currently active Registry.
func (h *Holder) Load() *Registry {
	return h.ptr.Load()
}

// Swap atomically replaces the active Registry for future Load calls.
func (h *Holder) Swap(next *Registry) {
	h.ptr.Store(next)
}
