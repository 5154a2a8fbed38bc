package node

import "sort"

const (
	ClassName   = "LNL_FrameSelector"
	DisplayName = "LNL Frame Selector"
)

// InputTypes declares the node inputs. The selector takes no wired inputs;
// it reads its widget values from the hidden prompt.
type InputTypes struct {
	Required map[string]any    `json:"required"`
	Hidden   map[string]string `json:"hidden"`
}

// Schema is the contract the host uses to wire and display the node.
type Schema struct {
	InputTypes  InputTypes `json:"input_types"`
	ReturnTypes []string   `json:"return_types"`
	ReturnNames []string   `json:"return_names"`
	OutputNode  bool       `json:"output_node"`
	Category    string     `json:"category"`
	Function    string     `json:"function"`
}

// FrameSelectorSchema returns the schema of the frame selector node. The
// order of ReturnTypes matches Result.Values.
func FrameSelectorSchema() Schema {
	return Schema{
		InputTypes: InputTypes{
			Required: map[string]any{},
			Hidden: map[string]string{
				"prompt":    "PROMPT",
				"unique_id": "UNIQUE_ID",
			},
		},
		ReturnTypes: []string{"IMAGE", "IMAGE", "INT", "INT", "INT", "INT", "INT", "VHS_AUDIO"},
		ReturnNames: []string{
			"Current image",
			"Image Batch (in/out)",
			"Frame count (rel)",
			"Frame count (abs)",
			"Current frame (rel)",
			"Current frame (abs)",
			"Frame rate",
			"audio",
		},
		OutputNode: true,
		Category:   "LNL",
		Function:   "get_specific_frame",
	}
}

// Definition is one registered node class.
type Definition struct {
	Class       string `json:"class"`
	DisplayName string `json:"display_name"`
	Schema      Schema `json:"schema"`
}

var registry = map[string]Definition{
	ClassName: {Class: ClassName, DisplayName: DisplayName, Schema: FrameSelectorSchema()},
}

// Lookup returns the definition registered under class.
func Lookup(class string) (Definition, bool) {
	d, ok := registry[class]
	return d, ok
}

// Definitions lists every registered node, sorted by class name.
func Definitions() []Definition {
	defs := make([]Definition, 0, len(registry))
	for _, d := range registry {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Class < defs[j].Class })
	return defs
}

// DisplayNames maps class names to their display names.
func DisplayNames() map[string]string {
	names := make(map[string]string, len(registry))
	for class, d := range registry {
		names[class] = d.DisplayName
	}
	return names
}
