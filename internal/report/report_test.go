package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"silence-cutter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = types.DetectionParams{ThresholdDB: -40, MinDuration: 0.5, Buffer: 0.2}

func TestBuild(t *testing.T) {
	segments := []types.Interval{
		{Start: 1.2, End: 3.5, Duration: 2.3},
		{Start: 5, End: 6.25, Duration: 1.25},
	}

	r := Build("talk.mp4", 10.00049, segments, testParams)

	assert.Equal(t, "talk.mp4", r.InputFile)
	assert.Equal(t, 10.0, r.OriginalDuration)
	assert.InDelta(t, 3.55, r.NewDuration, 1e-9)
	assert.InDelta(t, 6.45, r.RemovedDuration, 1e-9)
	assert.Equal(t, 2, r.NumberOfSegments)
	assert.Equal(t, segments, r.Segments)
	assert.Equal(t, testParams, r.Parameters)
}

func TestBuildNoSegments(t *testing.T) {
	r := Build("quiet.wav", 4, nil, testParams)
	assert.Equal(t, 0, r.NumberOfSegments)
	assert.Equal(t, 4.0, r.RemovedDuration)
	assert.NotNil(t, r.Segments)

	data, err := Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"segments": []`)
}

func TestMarshalFieldNames(t *testing.T) {
	r := Build("in.wav", 3, []types.Interval{{Start: 0, End: 1, Duration: 1}}, testParams)
	data, err := Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{
		"input_file", "original_duration", "new_duration", "removed_duration",
		"number_of_segments", "segments", "parameters",
	} {
		assert.Contains(t, decoded, key)
	}

	params, ok := decoded["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, -40.0, params["silence_threshold_db"])
	assert.Equal(t, 0.5, params["min_silence_duration"])
	assert.Equal(t, 0.2, params["buffer_duration"])

	segs := decoded["segments"].([]any)
	require.Len(t, segs, 1)
	assert.Equal(t, map[string]any{"start": 0.0, "end": 1.0, "duration": 1.0}, segs[0])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	r := Build("in.wav", 2, []types.Interval{{Start: 0.5, End: 1.5, Duration: 1}}, testParams)

	require.NoError(t, WriteFile(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var back types.Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *r, back)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		root   string
		output string
		isDir  bool
		want   string
	}{
		{"next to input", filepath.Join("videos", "talk.mp4"), "", "", false, filepath.Join("videos", "talk.mp4.segments.json")},
		{"explicit file", "talk.mp4", "", "cuts.json", false, "cuts.json"},
		{"into directory without root", filepath.Join("videos", "a", "talk.mp4"), "", "reports", true, filepath.Join("reports", "talk.mp4.json")},
		{"into directory keeps subdirs", filepath.Join("videos", "a", "talk.mp4"), "videos", "reports", true, filepath.Join("reports", "a", "talk.mp4.json")},
		{"outside root falls back to name", filepath.Join("other", "talk.mp4"), "videos", "reports", true, filepath.Join("reports", "talk.mp4.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.input, tt.root, tt.output, tt.isDir))
		})
	}
}

func TestOutputPathDistinguishesSameBaseName(t *testing.T) {
	root := "media"
	paths := map[string]bool{}
	for _, input := range []string{
		filepath.Join(root, "a", "x.wav"),
		filepath.Join(root, "b", "x.wav"),
		filepath.Join(root, "a", "x.flac"),
	} {
		paths[OutputPath(input, root, "reports", true)] = true
		paths[OutputPath(input, "", "", false)] = true
	}
	assert.Len(t, paths, 6)
}
