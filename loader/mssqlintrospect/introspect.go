// Package mssqlintrospect populates a registry.Builder's table_columns
// and table_fks entries by querying a live SQL Server database's system
// catalog views. It is the live-refresh counterpart to
// loader/csvloader's static files and loader/overlay's hand-curated
// exceptions; on a reload cadence, hand its result to
// registry.Holder.Swap.
package mssqlintrospect

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/imsquery/squerytranslate/internal/registry"
)

// Config is the connection configuration for a SQL Server instance.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DbName   string
}

// BuildDSN constructs the sqlserver:// DSN for c.
func BuildDSN(c Config) string {
	query := url.Values{}
	query.Add("database", c.DbName)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Loader introspects a live database's column and foreign-key metadata
// into a registry.Builder. It only fills table_columns/table_fks; entity
// names, aliases and the nav-prop/rename/resource-type exceptions come
// from loader/csvloader and loader/overlay, since the database has no
// notion of SQuery's entity names.
type Loader struct {
	db *sql.DB
}

// Open connects to the database described by c.
func Open(c Config) (*Loader, error) {
	db, err := sql.Open("sqlserver", BuildDSN(c))
	if err != nil {
		return nil, fmt.Errorf("mssqlintrospect: %w", err)
	}
	return &Loader{db: db}, nil
}

// Close releases the underlying connection pool.
func (l *Loader) Close() error {
	return l.db.Close()
}

// LoadColumns fills b's table_columns entries for every table listed
// (typically the result of Tables), replacing any column set already
// recorded under the same table name. Tables are not filtered by
// whether an entity binds to them.
func (l *Loader) LoadColumns(b *registry.Builder, tables []string) error {
	for _, table := range tables {
		cols, err := l.columnsFor(table)
		if err != nil {
			return fmt.Errorf("mssqlintrospect: columns for %s: %w", table, err)
		}
		b.SetColumns(table, cols)
	}
	return nil
}

// LoadForeignKeys fills b's table_fks entries for every table listed.
func (l *Loader) LoadForeignKeys(b *registry.Builder, tables []string) error {
	for _, table := range tables {
		fks, err := l.foreignKeysFor(table)
		if err != nil {
			return fmt.Errorf("mssqlintrospect: foreign keys for %s: %w", table, err)
		}
		for localCol, fk := range fks {
			b.SetForeignKey(table, localCol, fk.RefTable, fk.RefColumn)
		}
	}
	return nil
}

// Tables lists every user table in the database, schema-qualified as
// "schema.table", per sys.objects(type = 'U').
func (l *Loader) Tables() ([]string, error) {
	rows, err := l.db.Query(`select schema_name(schema_id) as table_schema, name from sys.objects where type = 'U';`)
	if err != nil {
		return nil, fmt.Errorf("mssqlintrospect: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, err
		}
		tables = append(tables, schema+"."+name)
	}
	return tables, rows.Err()
}

func (l *Loader) columnsFor(table string) ([]string, error) {
	schema, name := splitTableName(table)
	query := `
SELECT c.name
FROM sys.columns c WITH(NOLOCK)
JOIN sys.types tp WITH(NOLOCK) ON c.user_type_id = tp.user_type_id
WHERE c.object_id = OBJECT_ID(@p1)
ORDER BY c.column_id`
	rows, err := l.db.Query(query, sql.Named("p1", "["+schema+"].["+name+"]"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

type foreignKey struct {
	RefTable  string
	RefColumn string
}

func (l *Loader) foreignKeysFor(table string) (map[string]foreignKey, error) {
	schema, name := splitTableName(table)
	query := fmt.Sprintf(`SELECT
	COL_NAME(f.parent_object_id, fc.parent_column_id),
	OBJECT_NAME(f.referenced_object_id),
	COL_NAME(f.referenced_object_id, fc.referenced_column_id)
FROM sys.foreign_keys f INNER JOIN sys.foreign_key_columns fc ON f.OBJECT_ID = fc.constraint_object_id
WHERE f.parent_object_id = OBJECT_ID('[%s].[%s]')`, schema, name)

	rows, err := l.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]foreignKey{}
	for rows.Next() {
		var localCol, refTable, refCol string
		if err := rows.Scan(&localCol, &refTable, &refCol); err != nil {
			return nil, err
		}
		out[localCol] = foreignKey{RefTable: refTable, RefColumn: refCol}
	}
	return out, rows.Err()
}

func splitTableName(table string) (schema, name string) {
	schema = "dbo"
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return schema, table
}
