// Package overlay populates a registry.Builder from a YAML document
// holding the Schema Registry's exception-shaped entries: navigation
// property overrides, column rewrite rules, and resource entity type
// metadata. It is meant to run after a base loader such as
// loader/csvloader has bound entities, tables and columns, layering the
// hand-curated exceptions on top.
package overlay

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/imsquery/squerytranslate/internal/registry"
)

// Document is the YAML shape this loader decodes: one section per
// exception table the registry carries.
type Document struct {
	NavOverrides map[string]map[string]struct {
		TargetTable     string `yaml:"target_table"`
		TargetEntity    string `yaml:"target_entity"`
		LocalKey        string `yaml:"local_key"`
		ForeignKey      string `yaml:"foreign_key"`
		JoinType        string `yaml:"join_type"`
		ResourceSubType string `yaml:"resource_sub_type"`
	} `yaml:"nav_overrides"`

	GlobalColumnRenames map[string]string `yaml:"global_column_renames"`

	EntityColumnOverrides map[string]map[string]string `yaml:"entity_column_overrides"`

	ResourceEntityTypes map[string]struct {
		EntityTypeID int               `yaml:"entity_type_id"`
		Alias        string            `yaml:"alias"`
		Columns      map[string]string `yaml:"columns"`
	} `yaml:"resource_entity_types"`

	ResourceNavProps map[string]struct {
		TargetTable  string `yaml:"target_table"`
		TargetEntity string `yaml:"target_entity"`
		LocalKey     string `yaml:"local_key"`
		ForeignKey   string `yaml:"foreign_key"`
	} `yaml:"resource_nav_props"`
}

// Load reads path and applies its contents to b.
func Load(b *registry.Builder, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("overlay: %s: %w", path, err)
	}
	Apply(b, doc)
	return nil
}

// Apply records doc's entries into b, without touching the filesystem.
// Split out from Load so callers assembling a Document programmatically
// (tests, or a non-file config source) can skip the YAML round-trip.
func Apply(b *registry.Builder, doc Document) {
	for entity, navProps := range doc.NavOverrides {
		for navProp, o := range navProps {
			b.SetNavOverride(entity, navProp, registry.NavOverride{
				TargetTable:     o.TargetTable,
				TargetEntity:    o.TargetEntity,
				LocalKey:        o.LocalKey,
				ForeignKey:      o.ForeignKey,
				JoinType:        o.JoinType,
				ResourceSubType: o.ResourceSubType,
			})
		}
	}

	for field, column := range doc.GlobalColumnRenames {
		b.SetGlobalColumnRename(field, column)
	}

	for entity, fields := range doc.EntityColumnOverrides {
		for field, column := range fields {
			b.SetEntityColumnOverride(entity, field, column)
		}
	}

	for entity, t := range doc.ResourceEntityTypes {
		b.SetResourceEntityType(entity, registry.ResourceEntityType{
			EntityTypeID: t.EntityTypeID,
			Alias:        t.Alias,
		})
		for prop, column := range t.Columns {
			b.SetResourceColumn(entity, prop, column)
		}
	}

	for navProp, p := range doc.ResourceNavProps {
		b.SetResourceNavProp(navProp, registry.ResourceNavProp{
			TargetTable:  p.TargetTable,
			TargetEntity: p.TargetEntity,
			LocalKey:     p.LocalKey,
			ForeignKey:   p.ForeignKey,
		})
	}
}
