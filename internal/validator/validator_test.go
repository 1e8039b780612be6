package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsquery/squerytranslate/internal/ast"
	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/lexer"
	"github.com/imsquery/squerytranslate/internal/parser"
	"github.com/imsquery/squerytranslate/internal/registry"
)

func testRegistry() *registry.Registry {
	b := registry.NewBuilder()
	b.BindEntity("AzureSubscriptionRole", "UR_AzureSubscriptionRoles")
	b.SetAlias("AzureSubscriptionRole", "asr")
	b.SetColumns("UR_AzureSubscriptionRoles", []string{"Id", "OwnerType", "IsIndirect", "Role_Id"})
	b.BindEntity("Role", "UM_Roles")
	b.SetColumns("UM_Roles", []string{"Id", "Name"})
	b.SetForeignKey("UR_AzureSubscriptionRoles", "Role_Id", "UM_Roles", "Id")
	return b.Freeze()
}

func parseQuery(t *testing.T, src string) (*ast.Query, *diag.Report) {
	t.Helper()
	report := &diag.Report{}
	toks := lexer.Lex(src, report)
	q, err := parser.Parse(toks, report)
	require.NoError(t, err)
	return q, report
}

func TestValidateUnknownRootEntity(t *testing.T) {
	q, report := parseQuery(t, "select OwnerType")
	_, err := Validate(q, "NoSuchEntity", testRegistry(), report)
	require.Error(t, err)
	var diagErr *diag.Error
	require.ErrorAs(t, err, &diagErr)
	assert.Equal(t, diag.KindUnknownEntity, diagErr.Kind)
}

func TestValidateBindsRootAliasFromRegistry(t *testing.T) {
	q, report := parseQuery(t, "select OwnerType")
	scope, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.NoError(t, err)
	assert.Equal(t, "asr", scope.RootAlias())
	entity, ok := scope.EntityFor("asr")
	require.True(t, ok)
	assert.Equal(t, "AzureSubscriptionRole", entity)
}

func TestValidateJoinResolvesViaForeignKey(t *testing.T) {
	q, report := parseQuery(t, "join Role r select r.Name")
	scope, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.NoError(t, err)
	entity, ok := scope.EntityFor("r")
	require.True(t, ok)
	assert.Equal(t, "Role", entity)
	assert.Empty(t, report.Strings())
}

func TestValidateUnresolvedJoinWarnsAndMarksUnresolved(t *testing.T) {
	q, report := parseQuery(t, "join NoSuchNavProp n select n.Foo")
	scope, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.NoError(t, err)
	assert.True(t, scope.IsUnresolved("n"))
	assert.NotEmpty(t, report.Strings())
}

func TestValidateDuplicateJoinAliasIsFatal(t *testing.T) {
	q, report := parseQuery(t, "join Role r join Role r select r.Name")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.Error(t, err)
	var diagErr *diag.Error
	require.ErrorAs(t, err, &diagErr)
	assert.Equal(t, diag.KindValidationError, diagErr.Kind)
}

func TestValidateJoinAliasCollidesWithRoot(t *testing.T) {
	q, report := parseQuery(t, "join Role asr select asr.Name")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.Error(t, err)
}

func TestValidateUndeclaredAliasInSelectIsFatal(t *testing.T) {
	q, report := parseQuery(t, "select zz.Name")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.Error(t, err)
	var diagErr *diag.Error
	require.ErrorAs(t, err, &diagErr)
	assert.Equal(t, diag.KindValidationError, diagErr.Kind)
}

func TestValidateUnknownColumnWarnsButSucceeds(t *testing.T) {
	q, report := parseQuery(t, "select TotallyMadeUpColumn")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Strings())
}

func TestValidateNegativeTopIsFatal(t *testing.T) {
	q, report := parseQuery(t, "top -1")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.Error(t, err)
	var diagErr *diag.Error
	require.ErrorAs(t, err, &diagErr)
	assert.Equal(t, diag.ClauseTop, diagErr.Clause)
}

func TestValidateExcessiveTopWarns(t *testing.T) {
	q, report := parseQuery(t, "top 20000")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Strings())
}

func TestValidateWhereUndeclaredAliasIsFatal(t *testing.T) {
	q, report := parseQuery(t, "where zz.Name = 1")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.Error(t, err)
}

func TestValidateEmptySQueryWarns(t *testing.T) {
	q, report := parseQuery(t, "")
	_, err := Validate(q, "AzureSubscriptionRole", testRegistry(), report)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Strings())
}
