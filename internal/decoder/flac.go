package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"silence-cutter/internal/types"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

var _ types.AudioFile = (*FLACFile)(nil)

// FLACDecoder FLAC格式解码器
type FLACDecoder struct{}

// FLACFile FLAC文件实现，采样在首次调用 GetSamples 时读取
type FLACFile struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int
	bitDepth   int
	channels   int
	duration   time.Duration
	samples    []float64
	metadata   types.AudioMetadata
}

// SupportedFormats 返回支持的格式
func (d *FLACDecoder) SupportedFormats() []string {
	return []string{"flac"}
}

// Decode 解码FLAC文件
func (d *FLACDecoder) Decode(filePath string) (types.AudioFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开FLAC文件失败: %w", err)
	}

	// Parse 会读取全部元数据块，New 只读取 StreamInfo
	stream, err := flac.Parse(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("解析FLAC文件失败: %w", err)
	}

	info := stream.Info
	if info == nil || info.SampleRate == 0 || info.NChannels == 0 {
		file.Close()
		return nil, fmt.Errorf("无法读取FLAC信息: %s", filePath)
	}

	// NSamples 为 0 表示未知，读取采样后再补上
	duration := time.Duration(float64(info.NSamples) / float64(info.SampleRate) * float64(time.Second))

	flacFile := &FLACFile{
		stream:     stream,
		file:       file,
		sampleRate: int(info.SampleRate),
		bitDepth:   int(info.BitsPerSample),
		channels:   int(info.NChannels),
		duration:   duration,
	}

	flacFile.parseMetadata()

	return flacFile, nil
}

// parseMetadata 解析FLAC元数据
func (f *FLACFile) parseMetadata() {
	f.metadata = types.AudioMetadata{Duration: f.duration.String()}
	for _, block := range f.stream.Blocks {
		if block.Header.Type != meta.TypeVorbisComment {
			continue
		}
		if comment, ok := block.Body.(*meta.VorbisComment); ok {
			f.metadata.Title = getVorbisTag(comment, "TITLE")
			f.metadata.Artist = getVorbisTag(comment, "ARTIST")
			f.metadata.Album = getVorbisTag(comment, "ALBUM")
		}
	}
}

// getVorbisTag 获取Vorbis注释标签，标签名不区分大小写
func getVorbisTag(comment *meta.VorbisComment, tag string) string {
	for _, field := range comment.Tags {
		if strings.EqualFold(field[0], tag) {
			return field[1]
		}
	}
	return ""
}

// GetFormat 获取格式名称
func (f *FLACFile) GetFormat() string {
	return "FLAC"
}

// GetSampleRate 获取采样率
func (f *FLACFile) GetSampleRate() int {
	return f.sampleRate
}

// GetBitDepth 获取位深度
func (f *FLACFile) GetBitDepth() int {
	return f.bitDepth
}

// GetChannels 获取声道数
func (f *FLACFile) GetChannels() int {
	return f.channels
}

// GetDuration 获取时长
func (f *FLACFile) GetDuration() time.Duration {
	return f.duration
}

// GetSamples 获取交错排列的音频采样数据
func (f *FLACFile) GetSamples() ([]float64, error) {
	if f.samples != nil {
		return f.samples, nil
	}

	var allSamples []float64
	maxVal := float64(int(1) << uint(f.bitDepth-1))

	for {
		frame, err := f.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取FLAC音频帧失败: %w", err)
		}

		for i := 0; i < len(frame.Subframes[0].Samples); i++ {
			for ch := 0; ch < f.channels; ch++ {
				allSamples = append(allSamples, float64(frame.Subframes[ch].Samples[i])/maxVal)
			}
		}
	}

	if f.duration == 0 {
		frames := len(allSamples) / f.channels
		f.duration = time.Duration(float64(frames) / float64(f.sampleRate) * float64(time.Second))
		f.metadata.Duration = f.duration.String()
	}

	f.samples = allSamples
	return allSamples, nil
}

// GetMetadata 获取元数据
func (f *FLACFile) GetMetadata() types.AudioMetadata {
	return f.metadata
}

// Close 关闭文件
func (f *FLACFile) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}
