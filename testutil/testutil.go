// Package testutil provides a YAML-fixture-driven harness for
// translation test scenarios: test cases are named entries in a YAML
// file, decoded with github.com/goccy/go-yaml, and run with testify
// assertions. A case supplies a registry fixture, a SQuery string and
// root entity, and the SQL and warnings (or error) it should produce.
// The parameter table is not part of a case's expectations.
package testutil

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsquery/squerytranslate/internal/registry"
	"github.com/imsquery/squerytranslate/internal/translate"
	"github.com/imsquery/squerytranslate/loader/overlay"
	"github.com/imsquery/squerytranslate/util"
)

func init() {
	util.InitSlog()
	if os.Getenv("LOG_LEVEL") == "" {
		opts := &slog.HandlerOptions{Level: slog.LevelWarn}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
}

// EntityFixture is one entity_to_table(+alias) binding for a case's
// registry, the minimal base layer every case needs before its overlay
// entries (nav overrides, resource entity types, ...) make sense.
type EntityFixture struct {
	Table       string            `yaml:"table"`
	Alias       string            `yaml:"alias"`
	Columns     []string          `yaml:"columns"`
	ForeignKeys map[string]string `yaml:"foreign_keys"` // local column -> "RefTable.RefColumn"
}

// RegistryFixture is a whole test registry: a small set of entities and
// an overlay.Document of the exception-shaped entries.
type RegistryFixture struct {
	Entities map[string]EntityFixture `yaml:"entities"`
	Overlay  overlay.Document         `yaml:"overlay"`
}

// Build assembles a *registry.Registry from the fixture.
func (f RegistryFixture) Build() *registry.Registry {
	b := registry.NewBuilder()
	for entity, e := range f.Entities {
		b.BindEntity(entity, e.Table)
		if e.Alias != "" {
			b.SetAlias(entity, e.Alias)
		}
		if len(e.Columns) > 0 {
			b.SetColumns(e.Table, e.Columns)
		}
		for localCol, ref := range e.ForeignKeys {
			refTable, refCol := splitRef(ref)
			b.SetForeignKey(e.Table, localCol, refTable, refCol)
		}
	}
	overlay.Apply(b, f.Overlay)
	return b.Freeze()
}

func splitRef(ref string) (table, column string) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return ref, "Id"
}

// TranslationCase is one named scenario: a registry fixture, a SQuery
// string and its root entity, and the expected outcome.
type TranslationCase struct {
	Registry   RegistryFixture `yaml:"registry"`
	RootEntity string          `yaml:"root_entity"`
	SQuery     string          `yaml:"squery"`

	ExpectedSQL         string   `yaml:"expect_sql"`
	ExpectedSQLContains []string `yaml:"expect_sql_contains"`
	ExpectedSQLAbsent   []string `yaml:"expect_sql_absent"`
	ExpectedWarnings    []string `yaml:"expect_warnings"`
	ExpectedError       string   `yaml:"expect_error"`
}

// ReadCases globs pattern and decodes every file's top-level map of
// named TranslationCase entries, erroring on a name collision across
// files.
func ReadCases(pattern string) (map[string]TranslationCase, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	cases := map[string]TranslationCase{}
	seenIn := map[string]string{}
	for _, file := range files {
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var fileCases map[string]TranslationCase
		dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
		if err := dec.Decode(&fileCases); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		for name, tc := range fileCases {
			if existing, ok := seenIn[name]; ok {
				return nil, fmt.Errorf("duplicate test case name %q: defined in both %q and %q", name, existing, file)
			}
			seenIn[name] = file
			cases[name] = tc
		}
	}
	return cases, nil
}

// Run executes tc's scenario and returns the translate.Result and
// error, leaving assertions to the caller. RunCase wraps it with the
// standard expectation checks.
func Run(tc TranslationCase) (translate.Result, error) {
	reg := tc.Registry.Build()
	return translate.TranslateQuery(tc.SQuery, tc.RootEntity, reg)
}

// RunCase runs tc and asserts every expectation it declares.
func RunCase(t *testing.T, tc TranslationCase) {
	t.Helper()
	result, err := Run(tc)

	if tc.ExpectedError != "" {
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.ExpectedError)
		return
	}
	require.NoError(t, err)

	if tc.ExpectedSQL != "" {
		assert.Equal(t, tc.ExpectedSQL, result.SQL)
	}
	for _, want := range tc.ExpectedSQLContains {
		assert.Contains(t, result.SQL, want)
	}
	for _, absent := range tc.ExpectedSQLAbsent {
		assert.NotContains(t, result.SQL, absent)
	}
	for _, want := range tc.ExpectedWarnings {
		assert.True(t, anyContains(result.Warnings, want), "no warning contains %q in %v", want, result.Warnings)
	}
}

func anyContains(haystacks []string, substr string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, substr) {
			return true
		}
	}
	return false
}
