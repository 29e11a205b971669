package decoder

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"silence-cutter/internal/types"
)

const (
	// DefaultFFmpegPath 默认从 PATH 查找 ffmpeg
	DefaultFFmpegPath = "ffmpeg"
	// DefaultMediaSampleRate 从媒体文件提取音轨时使用的采样率
	DefaultMediaSampleRate = 44100
)

// MediaDecoder 视频及压缩音频解码器
// 通过 ffmpeg 把音轨提取成临时的 16 位 PCM WAV 文件，再交给 WAVDecoder
type MediaDecoder struct {
	FFmpegPath string
	SampleRate int

	wav WAVDecoder
}

// MediaFile 媒体文件实现，音频数据来自提取出的 WAV
type MediaFile struct {
	types.AudioFile
	format string
}

// NewMediaDecoder 创建媒体解码器，空路径和非正采样率使用默认值
func NewMediaDecoder(ffmpegPath string, sampleRate int) *MediaDecoder {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	if sampleRate <= 0 {
		sampleRate = DefaultMediaSampleRate
	}
	return &MediaDecoder{
		FFmpegPath: ffmpegPath,
		SampleRate: sampleRate,
	}
}

// SupportedFormats 返回支持的格式
func (d *MediaDecoder) SupportedFormats() []string {
	return []string{"mp4", "mov", "mkv", "avi", "webm", "m4v", "m4a", "mp3", "ogg", "aac"}
}

// Decode 提取并解码媒体文件的音轨
func (d *MediaDecoder) Decode(filePath string) (types.AudioFile, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("打开媒体文件失败: %w", err)
	}

	tmp, err := os.CreateTemp("", "silence-cutter-*.wav")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := d.extractAudio(filePath, tmpPath); err != nil {
		return nil, err
	}

	audioFile, err := d.wav.Decode(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("解码提取的音轨失败: %w", err)
	}

	format := strings.ToUpper(strings.TrimPrefix(filepath.Ext(filePath), "."))
	return &MediaFile{AudioFile: audioFile, format: format}, nil
}

// extractAudio 调用 ffmpeg 丢弃视频流，把音轨转成 PCM WAV
func (d *MediaDecoder) extractAudio(input, output string) error {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.SampleRate),
		output,
	}

	cmd := exec.Command(d.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("ffmpeg 提取音轨失败: %w", err)
		}
		return fmt.Errorf("ffmpeg 提取音轨失败: %w: %s", err, msg)
	}
	return nil
}

// GetFormat 获取格式名称（源文件扩展名）
func (m *MediaFile) GetFormat() string {
	return m.format
}
