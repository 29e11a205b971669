package decoder

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"silence-cutter/internal/types"
)

// AudioDecoder 音频解码器接口
type AudioDecoder interface {
	Decode(filePath string) (types.AudioFile, error)
	SupportedFormats() []string
}

// DecoderRegistry 解码器注册表
type DecoderRegistry struct {
	decoders map[string]AudioDecoder
}

// NewDecoderRegistry 创建新的解码器注册表
// 媒体解码器使用默认的 ffmpeg 路径与采样率，可通过 Register 覆盖
func NewDecoderRegistry() *DecoderRegistry {
	registry := &DecoderRegistry{
		decoders: make(map[string]AudioDecoder),
	}

	registry.Register(&WAVDecoder{})
	registry.Register(&FLACDecoder{})
	registry.Register(NewMediaDecoder(DefaultFFmpegPath, DefaultMediaSampleRate))

	return registry
}

// Register 注册解码器，同一扩展名后注册的覆盖先注册的
func (r *DecoderRegistry) Register(decoder AudioDecoder) {
	for _, format := range decoder.SupportedFormats() {
		r.decoders[strings.ToLower(format)] = decoder
	}
}

// SupportedExtensions 返回已注册的扩展名（带点号，已排序）
func (r *DecoderRegistry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.decoders))
	for format := range r.decoders {
		exts = append(exts, "."+format)
	}
	sort.Strings(exts)
	return exts
}

// Supports 判断文件扩展名是否有对应的解码器
func (r *DecoderRegistry) Supports(filePath string) bool {
	_, err := r.GetDecoder(filePath)
	return err == nil
}

// GetDecoder 根据文件扩展名获取解码器
func (r *DecoderRegistry) GetDecoder(filePath string) (AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return nil, fmt.Errorf("无法确定文件格式: %s", filePath)
	}

	// 移除点号
	ext = ext[1:]

	decoder, exists := r.decoders[ext]
	if !exists {
		return nil, fmt.Errorf("不支持的音频格式: %s", ext)
	}

	return decoder, nil
}

// DecodeFile 解码音频文件
func (r *DecoderRegistry) DecodeFile(filePath string) (types.AudioFile, error) {
	decoder, err := r.GetDecoder(filePath)
	if err != nil {
		return nil, err
	}

	return decoder.Decode(filePath)
}
