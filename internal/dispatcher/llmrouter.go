package dispatcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/letrezdraw/AIST/internal/aisterr"
	"github.com/letrezdraw/AIST/internal/skills"
)

// routingDecision is the `{function, parameters}` object the LLM is asked
// to return when routing an utterance to a skill.
type routingDecision struct {
	Function   string         `json:"function"`
	Parameters map[string]any `json:"parameters"`
}

// buildRoutingPrompt renders the system prompt listing every registered
// intent as one plain-text line, `name(param, ...): description`, plus
// the synthetic chat() fallback. The intents are not encoded as JSON, and
// parameter descriptions are not included.
func buildRoutingPrompt(intents []skills.Intent, assistantState string) string {
	var b strings.Builder
	b.WriteString("You are a voice assistant's routing brain. Analyze the user's request ")
	b.WriteString("and the assistant's current state to choose exactly one function to call.\n")
	fmt.Fprintf(&b, "The assistant's current state is: %s\n\n", assistantState)
	b.WriteString("Respond with a single valid JSON object and nothing else, shaped as:\n")
	b.WriteString(`{"function": "<name>", "parameters": {...}}` + "\n\n")
	b.WriteString("Available functions:\n")
	for _, intent := range intents {
		fmt.Fprintf(&b, "- %s(%s): %s\n", intent.Name, paramNames(intent.Parameters), intent.Description)
	}
	b.WriteString("- chat(user_query): general conversation, or when no other function fits.\n")
	return b.String()
}

func paramNames(params []skills.Parameter) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// fencePattern captures the body of the first markdown fence
// (```json ... ```) in a model reply. extractJSONObject then pulls the
// first top-level `{...}` block out of that body (or out of the whole
// reply when there is no fence), skipping any leading commentary a model
// might emit despite instructions. There is no bundled JSON-extraction
// helper anywhere in the retrieved corpus (see DESIGN.md), so the
// extraction is a small hand-rolled brace-counting scan rather than a
// naive regexp, since routing JSON can itself contain nested braces in
// parameters.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

func extractJSONObject(raw string) (string, error) {
	candidate := raw
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	start := strings.IndexByte(candidate, '{')
	if start == -1 {
		return "", &aisterr.RoutingParseError{Raw: raw}
	}

	depth := 0
	for i := start; i < len(candidate); i++ {
		switch candidate[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return candidate[start : i+1], nil
			}
		}
	}
	return "", &aisterr.RoutingParseError{Raw: raw}
}

func paramsToStringMap(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
