package extractor

import "strings"

// The extraction prompt is a versioned contract string: the parser depends on
// the exact column set and quoting rules stated here.
const extractionPromptHeader = `From the following article, please extract a CSV table with ',' as the delimiter (like a CSV structure) between columns and with each row being one of the locations mentioned in the article. The output will be used to search a geocoding API where we need to submit optimal search terms (don't include long sentences). The table should have only these 3 columns: location_name, event_category_at_location, event_description .
event_category_at_location can have one of the following values: DISASTER, NATURAL_DISASTER, CRIME_EVENT, PROTEST_EVENT, POLITICAL_EVENT, REFUGEES, WARCRIME, ANNOUNCEMENT_OR_SPEECH, MILITARY_EVENT, BUSINESS_EVENT, ECONOMIC_EVENT, DIPLOMATIC_EVENT, TERRORIST_EVENT, DEATH, HISTORICAL_EVENT and OTHER.
location_name should only be geographic places or organisations with well known geopolitical locations (e.g. "White House", "Kremlin").
location_name should never be a persons name, use your knowledge and article context to ignore people for the location_name field.
Do not respond with anything other than the table. Include the column headers.
Please be as granular as possible with the locations but don't include redundant references.
If there isn't any location mentions still return the table headers with no rows.
Be sure to wrap any text containing commas with quotes to maintain a valid table.

Example (Don't include these rows in your output, but do use the column headers for your first row):

location_name,event_category_at_location,event_description
"East London, South Africa",NATURAL_DISASTER,"A wildfire is affecting East London, South Africa"
"King Phalo Airport",DIPLOMATIC_EVENT,"The UN is sending aid via King Phalo Airport"
"Corner Cheltenham Road,Selborne, East London, 5217, South Africa",ANNOUNCEMENT,"The local government issued a statement from Corner Cheltenham Road"

Article to extract locations from:
Article:
`

// buildExtractionPrompt embeds the article text into the extraction prompt.
// Commas in the input are replaced with spaces so free text cannot collide
// with the table delimiter.
func buildExtractionPrompt(articleText string) string {
	return extractionPromptHeader + strings.ReplaceAll(articleText, ",", " ")
}
