package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedItem() *Item {
	item := NewItem()
	item.ID = "Q100"
	item.Claims["P1083"] = []Statement{
		{ID: "Q100$a", Property: "P1083", Value: QuantityValue{Amount: "+15", Unit: "1"}},
	}
	item.Claims["P131"] = []Statement{
		{ID: "Q100$b", Property: "P131", Value: ItemValue{ID: "Q456"}},
	}
	item.Claims["P31"] = []Statement{
		{ID: "Q100$c", Property: "P31", Value: ItemValue{ID: "Q61663696"}},
	}
	return item
}

func TestAddClaim_ReplaceSwapsValue(t *testing.T) {
	item := storedItem()

	item.AddClaim("P1083", NewQuantity(20), Replace)

	stmts := item.Statements("P1083")
	require.Len(t, stmts, 1)
	assert.Empty(t, stmts[0].ID)
	assert.Equal(t, QuantityValue{Amount: "+20", Unit: "1"}, stmts[0].Value)
	assert.Equal(t, []string{"Q100$a"}, item.RemovedStatements())
}

func TestAddClaim_ReplaceKeepsEqualValue(t *testing.T) {
	item := storedItem()
	item.Claims["P1083"] = append(item.Claims["P1083"],
		Statement{ID: "Q100$d", Property: "P1083", Value: QuantityValue{Amount: "+20", Unit: "1"}})

	item.AddClaim("P1083", NewQuantity(20), Replace)

	stmts := item.Statements("P1083")
	require.Len(t, stmts, 1)
	assert.Equal(t, "Q100$d", stmts[0].ID)
	assert.Equal(t, []string{"Q100$a"}, item.RemovedStatements())
	assert.Empty(t, item.NewStatements())
}

func TestAddClaim_KeepExisting(t *testing.T) {
	item := storedItem()

	item.AddClaim("P131", ItemValue{ID: "Q1291"}, KeepExisting)

	stmts := item.Statements("P131")
	require.Len(t, stmts, 1)
	assert.Equal(t, ItemValue{ID: "Q456"}, stmts[0].Value, "existing value is never overwritten")

	fresh := NewItem()
	fresh.AddClaim("P131", ItemValue{ID: "Q1291"}, KeepExisting)
	require.Len(t, fresh.Statements("P131"), 1)
	assert.Equal(t, ItemValue{ID: "Q1291"}, fresh.Statements("P131")[0].Value)
}

func TestAddClaim_AppendUnique(t *testing.T) {
	item := storedItem()

	item.AddClaim("P31", ItemValue{ID: "Q61663696"}, AppendUnique)
	assert.Len(t, item.Statements("P31"), 1, "identical value is deduplicated")

	item.AddClaim("P31", ItemValue{ID: "Q5"}, AppendUnique)
	assert.Len(t, item.Statements("P31"), 2)
	assert.Empty(t, item.RemovedStatements())
}

func TestItemState_IsDetached(t *testing.T) {
	item := storedItem()
	item.SetAliases("en", "Foch")
	state := item.State()

	item.SetLabel("fr", "changed")
	item.Aliases["en"][0] = "mutated"
	item.AddClaim("P31", ItemValue{ID: "Q5"}, AppendUnique)

	assert.Empty(t, state.Labels["fr"])
	assert.Equal(t, []string{"Foch"}, state.Aliases["en"])
	assert.Len(t, state.Claims["P31"], 1)
}

func TestItem_MarkWritten(t *testing.T) {
	item := storedItem()
	item.AddClaim("P1083", NewQuantity(20), Replace)
	require.NotEmpty(t, item.RemovedStatements())

	item.MarkWritten("Q100", 42)

	assert.Equal(t, int64(42), item.LastRevID)
	assert.Empty(t, item.RemovedStatements())
	assert.False(t, item.IsNew())
}

func TestQuantityValue_Equal(t *testing.T) {
	assert.True(t, NewQuantity(20).Equal(QuantityValue{Amount: "+20", Unit: "1"}))
	assert.True(t, NewQuantity(20).Equal(QuantityValue{Amount: "20", Unit: "1"}))
	assert.False(t, NewQuantity(20).Equal(QuantityValue{Amount: "+20", Unit: "http://www.wikidata.org/entity/Q11573"}))
	assert.False(t, NewQuantity(20).Equal(ExternalIDValue{Value: "20"}))
}

func TestParseMergePolicy(t *testing.T) {
	for _, p := range []MergePolicy{Replace, KeepExisting, AppendUnique} {
		got, err := ParseMergePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseMergePolicy("overwrite")
	assert.Error(t, err)
}
