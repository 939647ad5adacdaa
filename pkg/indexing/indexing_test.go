package indexing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/indexing"
)

func feeCollection() *domain.Collection {
	c := domain.NewCollection("fees", "id", "term", "status", "amount")
	c.Records = []domain.Record{
		{"id": 1, "term": "Fall", "status": "Paid", "amount": 1200},
		{"id": 2, "term": "Fall", "status": "Pending", "amount": 300},
		{"id": 3, "term": "Spring", "status": "Paid", "amount": "1200"},
		{"id": 4, "term": "Spring", "status": "paid", "amount": 50.5},
		{"id": 5, "term": "Summer"},
	}
	return c
}

func TestBuildAndQuery(t *testing.T) {
	idx := indexing.Build("status", feeCollection().Rows())
	assert.Equal(t, []int{0, 2}, idx.Query("Paid"))
	assert.Equal(t, []int{3}, idx.Query("paid"))
	assert.Nil(t, idx.Query("Overdue"))
	assert.Nil(t, idx.Query(nil))

	amounts := indexing.Build("amount", feeCollection().Rows())
	assert.Equal(t, []int{0, 2}, amounts.Query(1200.0), "numeric strings share the numeric entry")
}

func TestFacetOf(t *testing.T) {
	facet := indexing.FacetOf("term", feeCollection().Rows())
	assert.Equal(t, "term", facet.Field)
	assert.Equal(t, []domain.FacetValue{
		{Value: "Fall", Count: 2},
		{Value: "Spring", Count: 2},
		{Value: "Summer", Count: 1},
	}, facet.Values)

	empty := indexing.FacetOf[domain.Record]("term", nil)
	assert.Empty(t, empty.Values)
}

func TestIndexEngine_CreateAndDrop(t *testing.T) {
	engine := indexing.NewIndexEngine()
	fees := feeCollection()

	require.NoError(t, engine.CreateIndex(fees, "status"))
	require.NoError(t, engine.CreateIndex(fees, "term"))

	err := engine.CreateIndex(fees, "status")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.Equal(t, []string{"status", "term"}, engine.GetIndexes("fees"))
	assert.Empty(t, engine.GetIndexes("library"))

	idx, ok := engine.GetIndex("fees", "status")
	require.True(t, ok)
	assert.Equal(t, []int{1}, idx.Query("Pending"))

	require.NoError(t, engine.DropIndex("fees", "status"))
	_, ok = engine.GetIndex("fees", "status")
	assert.False(t, ok)

	err = engine.DropIndex("fees", "status")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = engine.DropIndex("library", "title")
	assert.Error(t, err)
}

func TestIndexEngine_FacetBuildsLazily(t *testing.T) {
	engine := indexing.NewIndexEngine()
	fees := feeCollection()

	facet := engine.Facet(fees, "status")
	assert.Len(t, facet.Values, 3)
	assert.Equal(t, []string{"status"}, engine.GetIndexes("fees"))

	// the cached index is reused
	assert.Equal(t, facet, engine.Facet(fees, "status"))
}

func TestIndexEngine_Reset(t *testing.T) {
	ie := indexing.NewIndexEngine()
	fees := feeCollection()
	require.Len(t, ie.Facet(fees, "term").Values, 3)

	ie.Reset()
	assert.Empty(t, ie.GetIndexes("fees"))

	fees.Records = fees.Records[:1]
	facet := ie.Facet(fees, "term")
	require.Len(t, facet.Values, 1)
	assert.Equal(t, "Fall", facet.Values[0].Value)
}
