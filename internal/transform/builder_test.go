package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderPagingEmitsOffsetFetch(t *testing.T) {
	b := NewBuilder("c", "[dbo].[UP_Categories]")
	b.SetSelect([]string{"c.Id"})
	b.AddOrderBy("c.Id ASC")
	b.SetPaging(20, 10)
	sql := b.Assemble()
	assert.Equal(t, "SELECT c.Id FROM [dbo].[UP_Categories] c ORDER BY c.Id ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", sql)
}

func TestBuilderPagingWithoutOrderBySynthesizesOne(t *testing.T) {
	b := NewBuilder("c", "[dbo].[UP_Categories]")
	b.SetPaging(5, 0)
	sql := b.Assemble()
	assert.Contains(t, sql, "ORDER BY (SELECT NULL) OFFSET 5 ROWS")
	assert.NotContains(t, sql, "FETCH NEXT")
}

func TestBuilderPagingLimitOnly(t *testing.T) {
	b := NewBuilder("c", "[dbo].[UP_Categories]")
	b.SetPaging(0, 25)
	sql := b.Assemble()
	assert.Contains(t, sql, "ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 25 ROWS ONLY")
}

func TestBuilderTopSuppressesPaging(t *testing.T) {
	b := NewBuilder("c", "[dbo].[UP_Categories]")
	b.SetTop(3)
	b.SetPaging(20, 10)
	sql := b.Assemble()
	assert.Contains(t, sql, "SELECT TOP 3 *")
	assert.NotContains(t, sql, "OFFSET")
	assert.NotContains(t, sql, "ORDER BY")
}
