package types

import "time"

// 结果状态
const (
	StatusOK    = "OK"    // 找到非静音片段并已写出报告
	StatusEmpty = "EMPTY" // 没有片段通过检测
	StatusError = "ERROR" // 解码或写出失败
)

// DetectionParams 检测参数，每次调用时传入
type DetectionParams struct {
	ThresholdDB float64 `json:"silence_threshold_db" yaml:"threshold_db"` // 相对峰值的分贝阈值 (≤0)
	MinDuration float64 `json:"min_silence_duration" yaml:"min_duration"` // 片段最短时长 (秒)
	Buffer      float64 `json:"buffer_duration" yaml:"buffer"`            // 前后扩展时长 (秒)
}

// Interval 一个非静音片段，半开区间 [Start, End)，单位秒
type Interval struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Report 单个输入文件的检测报告
type Report struct {
	InputFile        string          `json:"input_file"`
	OriginalDuration float64         `json:"original_duration"`
	NewDuration      float64         `json:"new_duration"`
	RemovedDuration  float64         `json:"removed_duration"`
	NumberOfSegments int             `json:"number_of_segments"`
	Segments         []Interval      `json:"segments"`
	Parameters       DetectionParams `json:"parameters"`
}

// CutterConfig 批处理配置
type CutterConfig struct {
	Params      DetectionParams
	Output      string // 报告输出路径（单文件）或目录
	OutputIsDir bool   // Output 是否作为目录使用
	InputRoot   string // 目录输入的根，报告在 Output 下保留相对路径
	Concurrency int    // 并发数
	Quiet       bool   // 静默模式
	JSONOutput  bool   // JSON输出格式
}

// AudioMetadata 音频元数据
type AudioMetadata struct {
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// CutResult 单个文件的处理结果
type CutResult struct {
	FilePath   string        `json:"filePath"`
	Format     string        `json:"format"`
	Metadata   AudioMetadata `json:"metadata"`
	Status     string        `json:"status"`
	SampleRate int           `json:"sampleRate,omitempty"`
	Channels   int           `json:"channels,omitempty"`
	ReportPath string        `json:"reportPath,omitempty"`
	Report     *Report       `json:"report,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// AudioFile 音频文件接口
type AudioFile interface {
	GetFormat() string
	GetSampleRate() int
	GetBitDepth() int
	GetChannels() int
	GetDuration() time.Duration
	// GetSamples 返回交错排列的采样，按位深归一化
	GetSamples() ([]float64, error)
	GetMetadata() AudioMetadata
	Close() error
}
