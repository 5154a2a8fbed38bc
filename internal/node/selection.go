package node

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andresmejia3/lnl-frame-selector/internal/types"
)

var (
	// ErrPromptNode means the prompt has no entry for the node's unique id.
	ErrPromptNode = errors.New("node missing from prompt")
	// ErrPromptField means a required input is absent or has the wrong type.
	ErrPromptField = errors.New("invalid prompt input")
)

// Selection is the in/out range picked in the slider widget. Frame markers
// are 1-based. Values are taken as given; the host enforces minimums.
type Selection struct {
	VideoPath    string
	InPoint      int
	OutPoint     int
	CurrentFrame int
	TotalFrames  int
	FrameRate    float64
	Stride       int
}

// FramesToProcess is the inclusive length of the in/out range.
func (s Selection) FramesToProcess() int { return s.OutPoint - s.InPoint + 1 }

// StartingFrame is the in point as a zero-based offset.
func (s Selection) StartingFrame() int { return s.InPoint - 1 }

// RelativeCurrentFrame is the current frame counted from the in point (1-based).
func (s Selection) RelativeCurrentFrame() int { return s.CurrentFrame - s.InPoint + 1 }

// ParseSelection reads the selector inputs of node uniqueID from prompt.
func ParseSelection(prompt types.Prompt, uniqueID string) (Selection, error) {
	n, ok := prompt[uniqueID]
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrPromptNode, uniqueID)
	}

	var sel Selection
	if err := decodeInput(n, "video_path", &sel.VideoPath); err != nil {
		return Selection{}, err
	}
	if err := decodeInput(n, "select_every_nth_frame", &sel.Stride); err != nil {
		return Selection{}, err
	}

	var slider types.InOutPointSlider
	if err := decodeInput(n, "in_out_point_slider", &slider); err != nil {
		return Selection{}, err
	}

	fields := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"startMarkerFrame", slider.StartMarkerFrame, &sel.InPoint},
		{"endMarkerFrame", slider.EndMarkerFrame, &sel.OutPoint},
		{"currentFrame", slider.CurrentFrame, &sel.CurrentFrame},
		{"totalFrames", slider.TotalFrames, &sel.TotalFrames},
	}
	for _, f := range fields {
		if f.src == nil {
			return Selection{}, fmt.Errorf("%w: in_out_point_slider.%s is missing", ErrPromptField, f.name)
		}
		*f.dst = *f.src
	}
	if slider.FrameRate == nil {
		return Selection{}, fmt.Errorf("%w: in_out_point_slider.frameRate is missing", ErrPromptField)
	}
	sel.FrameRate = *slider.FrameRate

	return sel, nil
}

func decodeInput(n types.PromptNode, name string, dst any) error {
	raw, ok := n.Inputs[name]
	if !ok {
		return fmt.Errorf("%w: %s is missing", ErrPromptField, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPromptField, name, err)
	}
	return nil
}

// NewPrompt builds a single-node prompt carrying sel, keyed by uniqueID.
func NewPrompt(uniqueID string, sel Selection) (types.Prompt, error) {
	slider := types.InOutPointSlider{
		StartMarkerFrame: &sel.InPoint,
		EndMarkerFrame:   &sel.OutPoint,
		CurrentFrame:     &sel.CurrentFrame,
		TotalFrames:      &sel.TotalFrames,
		FrameRate:        &sel.FrameRate,
	}

	inputs := make(map[string]json.RawMessage, 3)
	for name, v := range map[string]any{
		"video_path":             sel.VideoPath,
		"select_every_nth_frame": sel.Stride,
		"in_out_point_slider":    slider,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		inputs[name] = raw
	}

	return types.Prompt{uniqueID: {ClassType: ClassName, Inputs: inputs}}, nil
}
