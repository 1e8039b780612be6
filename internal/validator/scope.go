package validator

import "strings"

// Scope is the alias→entity binding built left-to-right over a Query's
// joins. Insertion order is preserved so error
// messages can list "Available aliases" in declaration order.
type Scope struct {
	order      []string
	entityOf   map[string]string
	lowerSeen  map[string]string // lowercased alias -> original, for case-insensitive dup detection
	unresolved map[string]bool
	rootAlias  string
}

func newScope() *Scope {
	return &Scope{
		entityOf:   map[string]string{},
		lowerSeen:  map[string]string{},
		unresolved: map[string]bool{},
	}
}

// RootAlias returns the alias bound to the query's root entity.
func (s *Scope) RootAlias() string {
	return s.rootAlias
}

func (s *Scope) bind(alias, entity string) {
	if _, exists := s.entityOf[alias]; !exists {
		s.order = append(s.order, alias)
	}
	s.entityOf[alias] = entity
	s.lowerSeen[strings.ToLower(alias)] = alias
}

func (s *Scope) bindUnresolved(alias, fallbackEntity string) {
	s.bind(alias, fallbackEntity)
	s.unresolved[alias] = true
}

// EntityFor returns the entity bound to alias. The lookup is
// case-sensitive; only duplicate detection is case-insensitive.
func (s *Scope) EntityFor(alias string) (string, bool) {
	e, ok := s.entityOf[alias]
	return e, ok
}

// IsUnresolved reports whether alias was bound to an unresolved nav-prop.
func (s *Scope) IsUnresolved(alias string) bool {
	return s.unresolved[alias]
}

// CollidesCaseInsensitive reports whether alias, compared
// case-insensitively, already exists in scope, returning the original
// casing it collides with.
func (s *Scope) CollidesCaseInsensitive(alias string) (string, bool) {
	existing, ok := s.lowerSeen[strings.ToLower(alias)]
	return existing, ok
}

// Available returns the currently bound aliases in declaration order,
// for "Available aliases: ..." error messages.
func (s *Scope) Available() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
