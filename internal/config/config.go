package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"silence-cutter/internal/decoder"
	"silence-cutter/internal/detector"
	"silence-cutter/internal/types"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "SILENCE_CUTTER_"

// Config 完整配置
type Config struct {
	Detection  types.DetectionParams `yaml:"detection"`
	Processing ProcessingConfig      `yaml:"processing"`
	Logging    LoggingConfig         `yaml:"logging"`
}

// ProcessingConfig 批处理与解码配置
type ProcessingConfig struct {
	Concurrency int    `yaml:"concurrency"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	SampleRate  int    `yaml:"sample_rate"` // 从媒体文件提取音轨的采样率
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Detection: types.DetectionParams{
			ThresholdDB: -10,
			MinDuration: 1,
			Buffer:      0.5,
		},
		Processing: ProcessingConfig{
			Concurrency: runtime.NumCPU(),
			FFmpegPath:  decoder.DefaultFFmpegPath,
			SampleRate:  decoder.DefaultMediaSampleRate,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load 在默认配置之上读取 YAML 文件，path 为空时只返回默认配置
// 不做校验，调用方在合并环境变量和命令行参数后调用 Validate
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	return cfg, nil
}

// LoadDotEnv 把 .env 文件载入进程环境，文件不存在时忽略
// 已存在的环境变量不会被覆盖
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("加载 %s 失败: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv 用 SILENCE_CUTTER_* 环境变量覆盖配置
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	floats := map[string]*float64{
		"THRESHOLD_DB": &c.Detection.ThresholdDB,
		"MIN_DURATION": &c.Detection.MinDuration,
		"BUFFER":       &c.Detection.Buffer,
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("环境变量 %s%s 无效: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"CONCURRENCY": &c.Processing.Concurrency,
		"SAMPLE_RATE": &c.Processing.SampleRate,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("环境变量 %s%s 无效: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	strs := map[string]*string{
		"FFMPEG":     &c.Processing.FFmpegPath,
		"LOG_LEVEL":  &c.Logging.Level,
		"LOG_FORMAT": &c.Logging.Format,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	return nil
}

// Validate 校验全部配置
func (c *Config) Validate() error {
	if err := validateDetection(c.Detection); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.Processing.Validate(); err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// validateDetection 阈值相对峰值，必须不大于 0 dB
func validateDetection(p types.DetectionParams) error {
	if p.ThresholdDB > 0 {
		return fmt.Errorf("%w: 阈值必须不大于 0 dB, 实际为 %v", detector.ErrInvalidParameter, p.ThresholdDB)
	}
	// 采样率在这里无关紧要，用 1 占位
	return detector.Validate(1, p)
}

// Validate 校验批处理配置
func (p ProcessingConfig) Validate() error {
	if p.Concurrency <= 0 {
		return fmt.Errorf("并发数必须为正数, 实际为 %d", p.Concurrency)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("采样率必须为正数, 实际为 %d", p.SampleRate)
	}
	if p.FFmpegPath == "" {
		return errors.New("ffmpeg 路径不能为空")
	}
	return nil
}

// Validate 校验日志配置
func (l LoggingConfig) Validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("未知的日志级别: %q", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("未知的日志格式: %q", l.Format)
	}
	return nil
}
