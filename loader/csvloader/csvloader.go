// Package csvloader populates a registry.Builder from a small set of CSV
// files, one per Schema Registry table. It is the plain-text,
// version-controllable base layer a deployment typically overlays with
// loader/overlay's YAML for the exception-shaped entries (nav-prop
// overrides, column renames, resource entity types), and which
// loader/mssqlintrospect can refresh at its column/FK layer from the
// live database.
package csvloader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/imsquery/squerytranslate/internal/registry"
)

// LoadEntities reads a CSV with header
// entity,table,alias
// and records entity_to_table / entity_alias entries.
func LoadEntities(b *registry.Builder, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range records {
		if i == 0 {
			continue // header
		}
		if len(row) < 2 {
			return fmt.Errorf("csvloader: %s line %d: expected at least 2 columns, got %d", path, i+1, len(row))
		}
		entity, table := row[0], row[1]
		b.BindEntity(entity, table)
		if len(row) >= 3 && row[2] != "" {
			b.SetAlias(entity, row[2])
		}
	}
	return nil
}

// LoadColumns reads a CSV with header
// table,column
// and records table_columns entries.
func LoadColumns(b *registry.Builder, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range records {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			return fmt.Errorf("csvloader: %s line %d: expected 2 columns, got %d", path, i+1, len(row))
		}
		b.AddColumn(row[0], row[1])
	}
	return nil
}

// LoadForeignKeys reads a CSV with header
// table,local_column,ref_table,ref_column
// and records table_fks entries.
func LoadForeignKeys(b *registry.Builder, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range records {
		if i == 0 {
			continue
		}
		if len(row) < 4 {
			return fmt.Errorf("csvloader: %s line %d: expected 4 columns, got %d", path, i+1, len(row))
		}
		b.SetForeignKey(row[0], row[1], row[2], row[3])
	}
	return nil
}

// LoadGlobalColumnRenames reads a CSV with header
// field,column
// and records global_column_renames entries.
func LoadGlobalColumnRenames(b *registry.Builder, path string) error {
	records, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range records {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			return fmt.Errorf("csvloader: %s line %d: expected 2 columns, got %d", path, i+1, len(row))
		}
		b.SetGlobalColumnRename(row[0], row[1])
	}
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvloader: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.ReuseRecord = false

	var records [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvloader: %s: %w", path, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue // blank line
		}
		records = append(records, row)
	}
	return records, nil
}
