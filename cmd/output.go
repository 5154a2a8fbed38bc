package cmd

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresmejia3/lnl-frame-selector/internal/audio"
	"github.com/andresmejia3/lnl-frame-selector/internal/batch"
	"github.com/andresmejia3/lnl-frame-selector/internal/lazy"
	"github.com/andresmejia3/lnl-frame-selector/internal/node"
)

// Manifest describes the files and scalar values written for one evaluation.
type Manifest struct {
	UniqueID string           `json:"unique_id"`
	Class    string           `json:"class"`
	Outputs  []ManifestOutput `json:"outputs"`
}

// ManifestOutput is one positional node output.
type ManifestOutput struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Value    any    `json:"value,omitempty"`
	File     string `json:"file,omitempty"`
	Shape    []int  `json:"shape,omitempty"`
	DType    string `json:"dtype,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
}

// tensorFiles names the tensor outputs by position.
var tensorFiles = map[int]string{0: "current.f32", 1: "batch.f32"}

const audioFile = "audio.wav"

// writeOutputs lays the result out in dir. The audio thunk is only forced
// when forceAudio is set.
func writeOutputs(dir, uniqueID string, res *node.Result, forceAudio bool) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	schema := node.FrameSelectorSchema()
	m := &Manifest{UniqueID: uniqueID, Class: node.ClassName}

	for i, v := range res.Values() {
		out := ManifestOutput{Index: i, Name: schema.ReturnNames[i], Type: schema.ReturnTypes[i]}

		switch v := v.(type) {
		case *batch.Batch:
			name := tensorFiles[i]
			if err := writeTensor(filepath.Join(dir, name), v); err != nil {
				return nil, err
			}
			shape := v.Shape()
			out.File, out.Shape, out.DType = name, shape[:], "float32le"
		case lazy.Thunk[*audio.Audio]:
			if !v.Valid() {
				break
			}
			if !forceAudio {
				out.Deferred = true
				break
			}
			a, err := v.Force()
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(filepath.Join(dir, audioFile), a.WAV, 0644); err != nil {
				return nil, fmt.Errorf("write audio: %w", err)
			}
			out.File = audioFile
		default:
			out.Value = v
		}
		m.Outputs = append(m.Outputs, out)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

// writeTensor stores the batch as packed little-endian float32 in NHWC order.
func writeTensor(path string, b *batch.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tensor file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, b.Data); err != nil {
		f.Close()
		return fmt.Errorf("write tensor: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write tensor: %w", err)
	}
	return f.Close()
}
