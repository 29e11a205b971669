package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV 把交错排列、范围 [-1, 1] 的采样写成 16 位 PCM WAV
func WriteWAV(t *testing.T, path string, sampleRate, channels int, samples []float64) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
}

// WriteWAV8 按字节写出 8 位无符号 PCM WAV，data 中 128 为静音
func WriteWAV8(t *testing.T, path string, sampleRate, channels int, data []byte) {
	t.Helper()

	var buf bytes.Buffer
	le := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("build %s: %v", path, err)
		}
	}

	buf.WriteString("RIFF")
	le(uint32(36 + len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(1)) // PCM
	le(uint16(channels))
	le(uint32(sampleRate))
	le(uint32(sampleRate * channels)) // 每秒字节数
	le(uint16(channels))              // 块对齐
	le(uint16(8))
	buf.WriteString("data")
	le(uint32(len(data)))
	buf.Write(data)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Burst 生成 seconds 秒的单声道静音，并在每个 [from, to) 秒区间内填入 amp
func Burst(sampleRate int, seconds, amp float64, spans ...[2]float64) []float64 {
	samples := make([]float64, int(seconds*float64(sampleRate)))
	for _, span := range spans {
		from := int(span[0] * float64(sampleRate))
		to := min(int(span[1]*float64(sampleRate)), len(samples))
		for i := from; i < to; i++ {
			samples[i] = amp
		}
	}
	return samples
}

// Interleave 把等长的单声道数据交错合并
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float64, 0, n*len(channels))
	for i := 0; i < n; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}
