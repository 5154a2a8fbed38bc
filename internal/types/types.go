package types

import "encoding/json"

// Prompt is the host's prompt dictionary, keyed by node unique id.
type Prompt map[string]PromptNode

// PromptNode matches one entry of the JSON prompt sent by the host
type PromptNode struct {
	ClassType string                     `json:"class_type,omitempty"`
	Inputs    map[string]json.RawMessage `json:"inputs"`
}

// InOutPointSlider matches the value object of the in/out point slider widget.
// Pointers distinguish a missing field from a zero value.
type InOutPointSlider struct {
	StartMarkerFrame *int     `json:"startMarkerFrame"`
	EndMarkerFrame   *int     `json:"endMarkerFrame"`
	CurrentFrame     *int     `json:"currentFrame"`
	TotalFrames      *int     `json:"totalFrames"`
	FrameRate        *float64 `json:"frameRate"`
}
