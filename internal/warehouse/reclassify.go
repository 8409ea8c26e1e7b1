package warehouse

import (
	"strings"

	"github.com/ingestio/enginecore/internal/model"
)

// noResultsMarker is the exact substring a genuine "no results" page title
// contains. GA4 properties that fire no_search_results unconditionally (on
// every search, successful or not) leave this marker absent from the page
// title when the search actually succeeded; those records are mistagged and
// belong in view_search_results instead.
const noResultsMarker = "No Results Found"

// Reclassify splits noSearchResults into records that are genuinely
// no-results searches (page title contains noResultsMarker) and records that
// are mistagged successful searches, moving the latter into
// viewSearchResults with NoSearchResultsTerm renamed to SearchTerm. It
// returns the corrected pair; neither input slice is mutated.
func Reclassify(noSearchResults, viewSearchResults []model.EventRecord) (correctedNoResults, correctedViewResults []model.EventRecord) {
	correctedNoResults = make([]model.EventRecord, 0, len(noSearchResults))
	correctedViewResults = append(correctedViewResults, viewSearchResults...)

	for _, rec := range noSearchResults {
		if strings.Contains(rec.PageTitle, noResultsMarker) {
			correctedNoResults = append(correctedNoResults, rec)
			continue
		}

		moved := rec
		moved.SearchTerm = moved.NoSearchResultsTerm
		moved.NoSearchResultsTerm = ""
		correctedViewResults = append(correctedViewResults, moved)
	}

	return correctedNoResults, correctedViewResults
}
