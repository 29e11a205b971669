package decoder

import (
	"fmt"
	"os"
	"time"

	"silence-cutter/internal/types"

	"github.com/go-audio/wav"
)

var _ types.AudioFile = (*WAVFile)(nil)

// WAVDecoder WAV格式解码器
type WAVDecoder struct{}

// WAVFile WAV文件实现，采样在解码时一次性读入
type WAVFile struct {
	sampleRate int
	bitDepth   int
	channels   int
	duration   time.Duration
	samples    []float64
}

// SupportedFormats 返回支持的格式
func (d *WAVDecoder) SupportedFormats() []string {
	return []string{"wav"}
}

// Decode 解码WAV文件
func (d *WAVDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开WAV文件失败: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("无效的WAV文件: %s", filePath)
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	bitDepth := int(decoder.BitDepth)
	if channels <= 0 || sampleRate <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("WAV头信息异常: %s (声道 %d, 采样率 %d, 位深 %d)", filePath, channels, sampleRate, bitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("读取WAV音频数据失败: %w", err)
	}

	// 转换为float64格式；8 位 PCM 为无符号，128 为零点
	samples := make([]float64, len(buf.Data))
	maxVal := float64(int(1) << uint(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}
	for i, sample := range buf.Data {
		samples[i] = (float64(sample) - offset) / maxVal
	}

	frames := len(samples) / channels
	duration := time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))

	return &WAVFile{
		sampleRate: sampleRate,
		bitDepth:   bitDepth,
		channels:   channels,
		duration:   duration,
		samples:    samples,
	}, nil
}

// GetFormat 获取格式名称
func (w *WAVFile) GetFormat() string {
	return "WAV"
}

// GetSampleRate 获取采样率
func (w *WAVFile) GetSampleRate() int {
	return w.sampleRate
}

// GetBitDepth 获取位深度
func (w *WAVFile) GetBitDepth() int {
	return w.bitDepth
}

// GetChannels 获取声道数
func (w *WAVFile) GetChannels() int {
	return w.channels
}

// GetDuration 获取时长
func (w *WAVFile) GetDuration() time.Duration {
	return w.duration
}

// GetSamples 获取音频采样数据
func (w *WAVFile) GetSamples() ([]float64, error) {
	return w.samples, nil
}

// GetMetadata 获取元数据
func (w *WAVFile) GetMetadata() types.AudioMetadata {
	// WAV文件的元数据支持有限，这里返回基本信息
	return types.AudioMetadata{
		Duration: w.duration.String(),
	}
}

// Close 关闭文件，文件句柄在解码后已释放
func (w *WAVFile) Close() error {
	w.samples = nil
	return nil
}
