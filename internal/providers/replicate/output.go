package replicate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"voicehost/internal/domain"
)

type audioOutput struct {
	Audio        json.RawMessage `json:"audio"`
	Duration     *float64        `json:"duration"`
	SamplingRate *float64        `json:"sampling_rate"`
}

// decodeOutput normalizes the output shapes the audio model is known to
// return: an object carrying the audio as a byte array, base64 text, a data
// URI or a URL, a bare URL string, or a list whose first entry is a URL.
// Errors describe output the model produced but that holds no usable audio.
func decodeOutput(raw json.RawMessage) (*domain.AudioOutput, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("replicate: decode output: %w", err)
		}
		return audioFromString(s)
	case '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil || len(items) == 0 {
			return nil, fmt.Errorf("replicate: unsupported output list")
		}
		return audioFromString(items[0])
	case '{':
		var obj audioOutput
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("replicate: decode output: %w", err)
		}
		out, err := decodeAudioField(obj.Audio)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = &domain.AudioOutput{}
		}
		out.Duration = obj.Duration
		out.SamplingRate = obj.SamplingRate
		return out, nil
	}
	return nil, fmt.Errorf("replicate: unsupported output shape")
}

func decodeAudioField(raw json.RawMessage) (*domain.AudioOutput, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	switch trimmed[0] {
	case '[':
		var values []int
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, fmt.Errorf("replicate: decode audio bytes: %w", err)
		}
		data := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("replicate: audio byte %d out of range: %d", i, v)
			}
			data[i] = byte(v)
		}
		return &domain.AudioOutput{Data: data}, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("replicate: decode audio: %w", err)
		}
		return audioFromString(s)
	}
	return nil, fmt.Errorf("replicate: unsupported audio encoding")
}

func audioFromString(s string) (*domain.AudioOutput, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return &domain.AudioOutput{URL: s}, nil
	case strings.HasPrefix(s, "data:"):
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.Contains(s[:comma], ";base64") {
			return nil, fmt.Errorf("replicate: unsupported data uri")
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("replicate: decode base64 audio: %w", err)
	}
	return &domain.AudioOutput{Data: data}, nil
}
