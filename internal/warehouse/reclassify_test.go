package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ingestio/enginecore/internal/model"
)

func TestReclassifyMovesMistaggedSuccessfulSearches(t *testing.T) {
	noResults := []model.EventRecord{
		{PageTitle: "Search - No Results Found", NoSearchResultsTerm: "widget"},
		{PageTitle: "Search Results", NoSearchResultsTerm: "gadget"},
	}
	viewResults := []model.EventRecord{
		{PageTitle: "Search Results", SearchTerm: "existing"},
	}

	gotNoResults, gotViewResults := Reclassify(noResults, viewResults)

	if assert.Len(t, gotNoResults, 1, "only the genuine no-results record should remain") {
		assert.Equal(t, "widget", gotNoResults[0].NoSearchResultsTerm, "genuine no-results record was altered")
	}

	if assert.Len(t, gotViewResults, 2, "the mistagged record should be appended") {
		moved := gotViewResults[1]
		assert.Equal(t, "gadget", moved.SearchTerm, "moved record should carry its term as SearchTerm")
		assert.Empty(t, moved.NoSearchResultsTerm, "moved record should not keep NoSearchResultsTerm")
	}
}

func TestReclassifyDoesNotMutateInputs(t *testing.T) {
	noResults := []model.EventRecord{
		{PageTitle: "No Results Found", NoSearchResultsTerm: "term"},
	}
	viewResults := []model.EventRecord{}

	_, _ = Reclassify(noResults, viewResults)

	assert.Equal(t, "term", noResults[0].NoSearchResultsTerm, "input slice must not be mutated")
}

func TestReclassifyEmptyInputs(t *testing.T) {
	gotNoResults, gotViewResults := Reclassify(nil, nil)
	assert.Empty(t, gotNoResults)
	assert.Empty(t, gotViewResults)
}
