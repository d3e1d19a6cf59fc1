package matcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/funkysandman/geowise/internal/model"
)

const selectionPromptHeader = `From the list of locations below, please return the ID of the most relevant location for the search term given the context of the below article. Return that ID in a JSON object with "id_choice" as a field and a "reasoning" field. If you don't think there is a good match respond with an id_choice of -1 and give a reason why you think there isn't a match in 'reasoning'. Also give a -1 if the location proposed likely isn't an actual location (for example "John Smith" is likely invalid as a location). Try to use the context of the article to determine if the location is valid. Also look to find the most relevant poi.category that matches the location. Only return valid JSON with double quote wrapped strings. Don't refer to the ID number in the reasoning, just why that location is a good match.
Example: {"id_choice": 0, "reasoning": "This is the best match because it's ..."}
`

// buildSelectionPrompt enumerates each candidate by its 0-based index with
// its full flattened attribute set. The index ordering is the contract: the
// model's id_choice points back into the same slice.
func buildSelectionPrompt(locationName string, candidates []model.GeoCandidate, articleText string) string {
	var b strings.Builder
	b.WriteString(selectionPromptHeader)
	b.WriteString("\nArticle Context:")
	b.WriteString(articleText)
	b.WriteString("\n\nLocation Search Term: ")
	b.WriteString(locationName)
	b.WriteString("\n\n Location Candidates:\n")

	for i, candidate := range candidates {
		attrs, err := json.Marshal(candidate)
		if err != nil {
			attrs = []byte(fmt.Sprintf("%v", map[string]any(candidate)))
		}
		fmt.Fprintf(&b, "\n%d: %s\n", i, attrs)
	}

	return b.String()
}
