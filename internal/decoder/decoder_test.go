package decoder

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"silence-cutter/internal/detector"
	"silence-cutter/internal/testutil"
	"silence-cutter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	registry := NewDecoderRegistry()

	tests := []struct {
		path    string
		want    any
		wantErr bool
	}{
		{path: "a.wav", want: &WAVDecoder{}},
		{path: "dir/B.WAV", want: &WAVDecoder{}},
		{path: "c.flac", want: &FLACDecoder{}},
		{path: "clip.mp4", want: &MediaDecoder{}},
		{path: "clip.MKV", want: &MediaDecoder{}},
		{path: "notes.txt", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			dec, err := registry.GetDecoder(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, registry.Supports(tt.path))
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, dec)
			assert.True(t, registry.Supports(tt.path))
		})
	}
}

func TestRegistryOverride(t *testing.T) {
	registry := NewDecoderRegistry()
	custom := NewMediaDecoder("/opt/ffmpeg/bin/ffmpeg", 16000)
	registry.Register(custom)

	dec, err := registry.GetDecoder("x.mov")
	require.NoError(t, err)
	assert.Same(t, custom, dec)

	exts := registry.SupportedExtensions()
	assert.Contains(t, exts, ".wav")
	assert.Contains(t, exts, ".flac")
	assert.Contains(t, exts, ".mp4")
	assert.IsIncreasing(t, exts)
}

func TestWAVDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	left := testutil.Burst(8000, 2, 0.5, [2]float64{0.5, 1})
	right := testutil.Burst(8000, 2, -0.25, [2]float64{1, 1.5})
	testutil.WriteWAV(t, path, 8000, 2, testutil.Interleave(left, right))

	file, err := NewDecoderRegistry().DecodeFile(path)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "WAV", file.GetFormat())
	assert.Equal(t, 8000, file.GetSampleRate())
	assert.Equal(t, 16, file.GetBitDepth())
	assert.Equal(t, 2, file.GetChannels())
	assert.Equal(t, 2*time.Second, file.GetDuration())

	samples, err := file.GetSamples()
	require.NoError(t, err)
	require.Len(t, samples, 2*16000)
	assert.InDelta(t, 0.0, samples[0], 1e-4)
	assert.InDelta(t, 0.5, samples[2*4000], 1e-3)
	assert.InDelta(t, -0.25, samples[2*8000+1], 1e-3)
}

func TestWAVDecode8BitUnsigned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u8.wav")
	data := bytes.Repeat([]byte{128}, 10*1000)
	for i := 4000; i < 6000; i++ {
		// 满幅方波
		if i%2 == 0 {
			data[i] = 255
		} else {
			data[i] = 0
		}
	}
	testutil.WriteWAV8(t, path, 1000, 1, data)

	file, err := NewDecoderRegistry().DecodeFile(path)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, 8, file.GetBitDepth())
	assert.Equal(t, 10*time.Second, file.GetDuration())

	samples, err := file.GetSamples()
	require.NoError(t, err)
	require.Len(t, samples, 10000)
	assert.Equal(t, 0.0, samples[0])
	assert.Equal(t, 0.0, samples[9999])
	assert.InDelta(t, 127.0/128, samples[4000], 1e-12)
	assert.Equal(t, -1.0, samples[4001])

	intervals, err := detector.Detect(samples, file.GetSampleRate(), types.DetectionParams{ThresholdDB: -20, MinDuration: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []types.Interval{{Start: 4, End: 6, Duration: 2}}, intervals)
}

func TestWAVDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := (&WAVDecoder{}).Decode(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)

	bogus := filepath.Join(dir, "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("definitely not riff data"), 0o644))
	_, err = (&WAVDecoder{}).Decode(bogus)
	assert.Error(t, err)
}

func TestFLACDecodeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := (&FLACDecoder{}).Decode(filepath.Join(dir, "missing.flac"))
	assert.Error(t, err)

	bogus := filepath.Join(dir, "bogus.flac")
	require.NoError(t, os.WriteFile(bogus, []byte("not a flac stream"), 0o644))
	_, err = (&FLACDecoder{}).Decode(bogus)
	assert.Error(t, err)
}

func TestNewMediaDecoderDefaults(t *testing.T) {
	d := NewMediaDecoder("", 0)
	assert.Equal(t, DefaultFFmpegPath, d.FFmpegPath)
	assert.Equal(t, DefaultMediaSampleRate, d.SampleRate)
}

func TestMediaDecodeMissingFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))

	d := NewMediaDecoder(filepath.Join(t.TempDir(), "no-such-ffmpeg"), 8000)
	_, err := d.Decode(path)
	assert.ErrorContains(t, err, "ffmpeg")
}

func TestMediaDecodeWithFFmpeg(t *testing.T) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not found in PATH")
	}

	src := filepath.Join(t.TempDir(), "source.wav")
	testutil.WriteWAV(t, src, 22050, 1, testutil.Burst(22050, 1, 0.8, [2]float64{0.25, 0.75}))

	d := NewMediaDecoder(ffmpeg, 8000)
	file, err := d.Decode(src)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "WAV", file.GetFormat())
	assert.Equal(t, 8000, file.GetSampleRate())
	assert.InDelta(t, 1.0, file.GetDuration().Seconds(), 0.05)
}
