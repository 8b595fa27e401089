// In file: internal/tools/search_tool.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// --- Search Tool Implementation ---

const (
	SearchToolName = "web_search"

	// NoResultsText is returned when the query shares no word with any topic.
	NoResultsText = "No relevant information found."
)

// topic is one canned fact of the knowledge table.
type topic struct {
	key  string
	fact string
}

// defaultTopics is scanned in order; ties go to the earlier entry.
var defaultTopics = []topic{
	{"weather forecast", "Weather forecasts predict atmospheric conditions for a specific location and time period. They typically include temperature, precipitation, wind, and other variables."},
	{"temperature conversion", "To convert Celsius to Fahrenheit: multiply by 9/5 and add 32. To convert Fahrenheit to Celsius: subtract 32 and multiply by 5/9."},
	{"climate change", "Climate change refers to significant changes in global temperature, precipitation, wind patterns, and other measures of climate that occur over several decades or longer."},
	{"severe weather", "Severe weather includes thunderstorms, tornadoes, hurricanes, blizzards, floods, and high winds that can cause damage, disruption, and loss of life."},
}

// SearchResult is the JSON payload returned to the model.
type SearchResult struct {
	Query  string `json:"query"`
	Result string `json:"result"`
}

// SearchTool simulates a web search over a small, fixed table of facts using
// word-overlap scoring. It is a stand-in, not an index.
type SearchTool struct {
	topics []topic
}

var _ ToolExecutor = (*SearchTool)(nil)

// NewSearchTool creates the search tool over the built-in topic table.
func NewSearchTool() *SearchTool {
	return &SearchTool{topics: defaultTopics}
}

// Definition describes the tool to the LLM.
func (st *SearchTool) Definition() Tool {
	return NewFunctionTool(
		SearchToolName,
		"Search for information on the web",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"query": {Type: "string", Description: "The search query"},
			},
			Required: []string{"query"},
		},
	)
}

// Execute runs the search and returns a {"query","result"} JSON object.
func (st *SearchTool) Execute(_ context.Context, arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for search tool: %w", err)
	}
	return encodeResult(st.Search(args.Query))
}

// Search scores every topic by the number of distinct lower-cased words it
// shares with the query. Only a strictly higher score replaces the current
// best, so the first topic wins a tie.
func (st *SearchTool) Search(query string) SearchResult {
	queryWords := wordSet(query)

	bestScore := 0
	bestFact := ""
	for _, t := range st.topics {
		score := 0
		for w := range wordSet(t.key) {
			if _, ok := queryWords[w]; ok {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestFact = t.fact
		}
	}

	if bestScore == 0 {
		return SearchResult{Query: query, Result: NoResultsText}
	}
	return SearchResult{Query: query, Result: bestFact}
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
