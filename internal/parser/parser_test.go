package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsquery/squerytranslate/internal/ast"
	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/lexer"
)

func mustParse(t *testing.T, src string) (*ast.Query, *diag.Report) {
	t.Helper()
	report := &diag.Report{}
	toks := lexer.Lex(src, report)
	q, err := Parse(toks, report)
	require.NoError(t, err)
	return q, report
}

func TestParseSelectList(t *testing.T) {
	q, _ := mustParse(t, "select DisplayName, asr.OwnerType")
	require.Len(t, q.Select, 2)
	assert.Equal(t, ast.FieldRef{Field: "DisplayName"}, q.Select[0])
	assert.Equal(t, ast.FieldRef{Alias: "asr", Field: "OwnerType"}, q.Select[1])
}

func TestParseSelectTrailingCommaTolerated(t *testing.T) {
	q, report := mustParse(t, "select DisplayName, top 5")
	require.Len(t, q.Select, 1)
	assert.Equal(t, 5, q.Top)
	assert.Empty(t, report.Strings())
}

func TestParseSelectAcceptsKeywordShapedFieldName(t *testing.T) {
	q, _ := mustParse(t, "select Type, a.Type")
	require.Len(t, q.Select, 2)
	assert.Equal(t, ast.FieldRef{Field: "Type"}, q.Select[0])
	assert.Equal(t, ast.FieldRef{Alias: "a", Field: "Type"}, q.Select[1])
}

func TestParseTop(t *testing.T) {
	q, _ := mustParse(t, "top 10")
	assert.Equal(t, 10, q.Top)
}

func TestParseSimpleJoin(t *testing.T) {
	q, _ := mustParse(t, "join Role r")
	require.Len(t, q.Joins, 1)
	assert.Equal(t, ast.Join{NavProp: "Role", Alias: "r"}, q.Joins[0])
}

func TestParseChainedJoin(t *testing.T) {
	q, _ := mustParse(t, "join Role r join r.Policy rp")
	require.Len(t, q.Joins, 2)
	assert.Equal(t, ast.Join{NavProp: "Role", Alias: "r"}, q.Joins[0])
	assert.Equal(t, ast.Join{ParentAlias: "r", NavProp: "Policy", Alias: "rp"}, q.Joins[1])
}

func TestParseJoinWithTypeColonSuffix(t *testing.T) {
	q, _ := mustParse(t, "join Owner:User o")
	require.Len(t, q.Joins, 1)
	assert.Equal(t, "Owner", q.Joins[0].NavProp)
	assert.Equal(t, "User", q.Joins[0].TypeSuffix)
}

func TestParseJoinOfType(t *testing.T) {
	q, _ := mustParse(t, "join Owner of type User o")
	require.Len(t, q.Joins, 1)
	assert.Equal(t, "User", q.Joins[0].TypeFilter)
}

func TestParseWhereComparisonOperators(t *testing.T) {
	q, _ := mustParse(t, "where OwnerType = 2015")
	cmp, ok := q.Where.(ast.Compare)
	require.True(t, ok)
	assert.Equal(t, ast.OpEq, cmp.Op)
	num, ok := cmp.Value.(ast.Number)
	require.True(t, ok)
	assert.Equal(t, "2015", num.String())
}

func TestParseWhereAndOrPrecedence(t *testing.T) {
	q, _ := mustParse(t, "where OwnerType = 1 and IsIndirect = false or Foo = 2")
	logical, ok := q.Where.(ast.Logical)
	require.True(t, ok)
	assert.Equal(t, ast.LogicalOr, logical.Op)
	left, ok := logical.Left.(ast.Logical)
	require.True(t, ok)
	assert.Equal(t, ast.LogicalAnd, left.Op)
}

func TestParseWhereParenGrouping(t *testing.T) {
	q, _ := mustParse(t, "where (OwnerType = 1 or OwnerType = 2) and IsIndirect = false")
	logical, ok := q.Where.(ast.Logical)
	require.True(t, ok)
	assert.Equal(t, ast.LogicalAnd, logical.Op)
	_, ok = logical.Left.(ast.Logical)
	assert.True(t, ok)
}

func TestParseWhereMissingCloseParenTolerated(t *testing.T) {
	q, report := mustParse(t, "where (OwnerType = 1")
	_, ok := q.Where.(ast.Compare)
	assert.True(t, ok)
	require.Len(t, report.Strings(), 1)
}

func TestParseWhereNot(t *testing.T) {
	q, _ := mustParse(t, "where not OwnerType = 1")
	_, ok := q.Where.(ast.Not)
	assert.True(t, ok)
}

func TestParseWhereNullComparison(t *testing.T) {
	q, _ := mustParse(t, "where DeletedAt = null")
	cmp := q.Where.(ast.Compare)
	_, ok := cmp.Value.(ast.NullValue)
	assert.True(t, ok)
}

func TestParseWhereStringAndBooleanValues(t *testing.T) {
	q, _ := mustParse(t, `where Name = 'bob' and IsActive = true`)
	logical := q.Where.(ast.Logical)
	left := logical.Left.(ast.Compare)
	assert.Equal(t, ast.StrValue("bob"), left.Value)
	right := logical.Right.(ast.Compare)
	assert.Equal(t, ast.BoolValue(true), right.Value)
}

func TestParseWhereColumnComparison(t *testing.T) {
	q, _ := mustParse(t, "where a.Id = b.ParentId")
	cmp := q.Where.(ast.Compare)
	ref, ok := cmp.Value.(ast.ColumnRef)
	require.True(t, ok)
	assert.Equal(t, "b", ref.Alias)
	assert.Equal(t, "ParentId", ref.Field)
}

func TestParseOrderBy(t *testing.T) {
	q, _ := mustParse(t, "order by DisplayName desc, asr.OwnerType asc")
	require.Len(t, q.OrderBy, 2)
	assert.True(t, q.OrderBy[0].Desc)
	assert.False(t, q.OrderBy[1].Desc)
}

func TestParseRejectsBareBangOperator(t *testing.T) {
	report := &diag.Report{}
	toks := lexer.Lex("where a ! 1", report)
	_, err := Parse(toks, report)
	require.Error(t, err)
	var parseErr *diag.Error
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, diag.KindParseError, parseErr.Kind)
}

func TestParseFullQuery(t *testing.T) {
	q, _ := mustParse(t, "join Role r select DisplayName, r.Name where OwnerType = 2015 order by DisplayName top 5")
	assert.Len(t, q.Joins, 1)
	assert.Len(t, q.Select, 2)
	assert.NotNil(t, q.Where)
	assert.Len(t, q.OrderBy, 1)
	assert.Equal(t, 5, q.Top)
}

func TestParseUnexpectedKeywordIsSkippedWithWarning(t *testing.T) {
	report := &diag.Report{}
	toks := lexer.Lex("by select Foo", report)
	q, err := Parse(toks, report)
	require.NoError(t, err)
	require.Len(t, q.Select, 1)
	require.NotEmpty(t, report.Strings())
}
