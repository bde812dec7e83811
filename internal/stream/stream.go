// Package stream reduces a worker's raw execution trace into one final
// response and detects embedded interactive UI resources along the way.
package stream

import (
	"encoding/json"
	"strings"
)

// Kind discriminates trace chunks.
type Kind int

const (
	// AgentText is a fragment of the worker's own narrative output.
	AgentText Kind = iota
	// ToolCall announces a tool invocation before it runs.
	ToolCall
	// ToolOutput carries the textual result of a tool invocation.
	ToolOutput
)

// Chunk is one element of a worker's execution trace.
type Chunk struct {
	Kind Kind
	Text string
	// Tool is set on ToolCall and ToolOutput chunks.
	Tool string
}

// Resource is an embedded interactive payload found in a tool output. It is
// passed through to the caller unmodified.
type Resource struct {
	URI      string                 `json:"uri"`
	MimeType string                 `json:"mimeType"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Result is the reduction of one worker trace.
type Result struct {
	FinalText      string
	LastToolOutput string
	Resource       *Resource
}

// toolOutputPreview bounds how much raw tool output may stand in for a
// missing narrative answer.
const toolOutputPreview = 400

// placeholderText is returned when a trace produced neither narrative text
// nor a usable tool output.
const placeholderText = "The requested action completed, but produced no narrative response."

// Aggregate folds a trace into a Result. FinalText is never empty: it falls
// back from concatenated narrative text to the description field of the last
// tool output, to a truncated tool output, to a fixed placeholder.
func Aggregate(chunks []Chunk) Result {
	var text strings.Builder
	var res Result

	for _, c := range chunks {
		switch c.Kind {
		case AgentText:
			text.WriteString(c.Text)
		case ToolOutput:
			res.LastToolOutput = c.Text
			if r := DetectResource(c.Text); r != nil {
				// Last one wins when several outputs embed a resource.
				res.Resource = r
			}
		}
	}

	res.FinalText = strings.TrimSpace(text.String())
	if res.FinalText != "" {
		return res
	}

	if desc := descriptionField(res.LastToolOutput); desc != "" {
		res.FinalText = desc
		return res
	}
	if out := strings.TrimSpace(res.LastToolOutput); out != "" {
		res.FinalText = truncate(out, toolOutputPreview)
		return res
	}

	res.FinalText = placeholderText
	return res
}

// DetectResource best-effort parses a tool output as JSON and returns an
// embedded interactive resource if one is present, either as the object
// itself or under a "resource" key. Non-JSON output returns nil.
func DetectResource(text string) *Resource {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil
	}

	if r := asResource(obj); r != nil {
		return r
	}
	if nested, ok := obj["resource"].(map[string]interface{}); ok {
		return asResource(nested)
	}
	return nil
}

// asResource converts a JSON object to a Resource if it carries the
// required uri and mimeType fields.
func asResource(obj map[string]interface{}) *Resource {
	uri, _ := obj["uri"].(string)
	mime, _ := obj["mimeType"].(string)
	if uri == "" || mime == "" {
		return nil
	}
	payload, _ := obj["payload"].(map[string]interface{})
	return &Resource{URI: uri, MimeType: mime, Payload: payload}
}

// descriptionField extracts a "description" string from a JSON tool output.
func descriptionField(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return ""
	}
	desc, _ := obj["description"].(string)
	return strings.TrimSpace(desc)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
