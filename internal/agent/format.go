// In file: internal/agent/format.go
package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/weather"
)

const speaker = "Weather Assistant: "

var latexFraction = regexp.MustCompile(`\\frac\{(\d+)\}\{(\d+)\}`)

// CleanResponse strips the LaTeX markup models tend to emit so the text reads
// well on a plain terminal. The rewrites run in a fixed order.
func CleanResponse(s string) string {
	s = strings.NewReplacer(`\[`, "", `\]`, "").Replace(s)
	s = latexFraction.ReplaceAllString(s, "($1/$2)")
	s = strings.ReplaceAll(s, `\times`, "*")
	s = strings.NewReplacer(`\(`, "", `\)`, "").Replace(s)
	return strings.ReplaceAll(s, "\n\n", "\n")
}

// RenderReply turns the last message of a processed history into the text
// shown to the user. It reports false when there is nothing to show, which
// happens for an assistant turn with empty content.
func RenderReply(msg llm.Message) (string, bool) {
	switch msg.Role {
	case llm.RoleTool:
		return renderToolResult(msg.Content), true
	case llm.RoleAssistant:
		if msg.Content == "" {
			return "", false
		}
		return "\n" + speaker + CleanResponse(msg.Content) + "\n", true
	}
	return "", false
}

// renderToolResult formats a raw weather payload. Anything that is not a
// weather payload, error text included, is shown as is.
func renderToolResult(content string) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return "\n" + speaker + content + "\n"
	}

	if _, ok := probe["temperature_c"]; ok {
		var c weather.Current
		if err := json.Unmarshal([]byte(content), &c); err == nil {
			return formatCurrent(c)
		}
	}
	if _, ok := probe["forecast"]; ok {
		var f weather.Forecast
		if err := json.Unmarshal([]byte(content), &f); err == nil {
			return formatForecast(f)
		}
	}
	return "\n" + speaker + content + "\n"
}

func formatCurrent(c weather.Current) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%sThe current weather in %s is:\n", speaker, c.Location)
	fmt.Fprintf(&b, "- Temperature: %s°C (%s°F)\n", formatNumber(c.TemperatureC), formatNumber(c.TemperatureF))
	fmt.Fprintf(&b, "- Condition: %s\n", c.Condition)
	fmt.Fprintf(&b, "- Humidity: %d%%\n", c.Humidity)
	fmt.Fprintf(&b, "- Wind Speed: %s kph\n", formatNumber(c.WindKPH))
	return b.String()
}

func formatForecast(f weather.Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%sThe weather forecast for %s is:\n", speaker, f.Location)
	for _, day := range f.Days {
		fmt.Fprintf(&b, "- Date: %s\n", day.Date)
		fmt.Fprintf(&b, "  Max Temp: %s°C, Min Temp: %s°C\n", formatNumber(day.MaxTempC), formatNumber(day.MinTempC))
		fmt.Fprintf(&b, "  Condition: %s\n", day.Condition)
		fmt.Fprintf(&b, "  Chance of Rain: %d%%\n", day.ChanceOfRain)
	}
	return b.String()
}

// formatNumber prints provider measurements with at least one decimal, so a
// reading of 18 shows as "18.0".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		s += ".0"
	}
	return s
}
