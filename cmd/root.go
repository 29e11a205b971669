package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"silence-cutter/internal/config"
	"silence-cutter/internal/cutter"
	"silence-cutter/internal/decoder"
	"silence-cutter/internal/types"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	inputPath   string
	outputPath  string
	configPath  string
	thresholdDB float64
	minDuration float64
	bufferSec   float64
	concurrency int
	ffmpegPath  string
	logLevel    string
	quiet       bool
	jsonOutput  bool
	version     = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "silence-cutter [path]",
	Short: "检测音视频文件中的非静音片段",
	Long: `Silence Cutter 是一个CLI工具，用于找出音视频文件中非静音的时间段，
方便剪辑时只保留有声音的部分。

每个采样的幅值换算为相对整段峰值的分贝数，高于阈值即为有声；
有声区域向两侧扩展缓冲时长后合并，短于最短时长的片段被丢弃。
结果以JSON报告写出。支持 WAV、FLAC，以及 ffmpeg 能解码的视频和压缩音频。`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCut,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "", "输入文件或目录")
	flags.StringVarP(&outputPath, "output", "o", "", "报告路径；输入为目录时作为输出目录")
	flags.StringVarP(&configPath, "config", "c", "", "YAML配置文件")
	flags.Float64VarP(&thresholdDB, "threshold", "t", -10, "静音阈值，相对峰值的dB数")
	flags.Float64VarP(&minDuration, "min-duration", "m", 1, "片段最短时长 (秒)")
	flags.Float64VarP(&bufferSec, "buffer", "b", 0.5, "片段前后扩展的缓冲时长 (秒)")
	flags.IntVarP(&concurrency, "concurrency", "j", runtime.NumCPU(), "并发处理文件数量")
	flags.StringVar(&ffmpegPath, "ffmpeg", decoder.DefaultFFmpegPath, "ffmpeg 可执行文件路径")
	flags.StringVar(&logLevel, "log-level", "warn", "日志级别 (debug, info, warn, error)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "静默模式，仅输出报告路径")
	flags.BoolVar(&jsonOutput, "json", false, "以JSON格式输出结果")
	flags.BoolP("version", "v", false, "显示版本信息")

	// 兼容旧参数名 --min_silence
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "min_silence" {
			name = "min-duration"
		}
		return pflag.NormalizedName(name)
	})

	rootCmd.SetVersionTemplate("silence-cutter version {{.Version}}\n")
	rootCmd.Version = version
}

func runCut(cmd *cobra.Command, args []string) error {
	targetPath := inputPath
	if len(args) == 1 {
		targetPath = args[0]
	}
	if targetPath == "" {
		return fmt.Errorf("请指定输入文件或目录")
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("路径不存在: %s", targetPath)
		}
		return err
	}

	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	logger.Debug("配置已加载",
		"threshold_db", cfg.Detection.ThresholdDB,
		"min_duration", cfg.Detection.MinDuration,
		"buffer", cfg.Detection.Buffer,
		"concurrency", cfg.Processing.Concurrency,
		"ffmpeg", cfg.Processing.FFmpegPath,
	)

	registry := decoder.NewDecoderRegistry()
	registry.Register(decoder.NewMediaDecoder(cfg.Processing.FFmpegPath, cfg.Processing.SampleRate))

	files, err := collectMediaFiles(targetPath, registry)
	if err != nil {
		return fmt.Errorf("收集文件失败: %w", err)
	}

	if len(files) == 0 {
		fmt.Println("未找到支持的音视频文件")
		return nil
	}

	inputRoot := ""
	if info.IsDir() {
		inputRoot = targetPath
	}

	cutterConfig := &types.CutterConfig{
		Params:      cfg.Detection,
		Output:      outputPath,
		OutputIsDir: outputIsDir(info.IsDir(), outputPath),
		InputRoot:   inputRoot,
		Concurrency: cfg.Processing.Concurrency,
		Quiet:       quiet,
		JSONOutput:  jsonOutput,
	}

	results := cutter.NewCutter(cutterConfig, registry, logger).ProcessFiles(files)
	if failed := cutter.CountFailed(results); failed > 0 {
		return fmt.Errorf("%d 个文件处理失败", failed)
	}
	return nil
}

// resolveConfig 按 默认值 < 配置文件 < 环境变量 < 命令行参数 的顺序合并配置
func resolveConfig(flags *pflag.FlagSet) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if flags.Changed("threshold") {
		cfg.Detection.ThresholdDB = thresholdDB
	}
	if flags.Changed("min-duration") {
		cfg.Detection.MinDuration = minDuration
	}
	if flags.Changed("buffer") {
		cfg.Detection.Buffer = bufferSec
	}
	if flags.Changed("concurrency") {
		cfg.Processing.Concurrency = concurrency
	}
	if flags.Changed("ffmpeg") {
		cfg.Processing.FFmpegPath = ffmpegPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return cfg, nil
}

// outputIsDir 目录输入或已存在的目录输出时，按目录写报告
func outputIsDir(inputIsDir bool, output string) bool {
	if output == "" {
		return false
	}
	if inputIsDir {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

func collectMediaFiles(path string, registry *decoder.DecoderRegistry) ([]string, error) {
	var files []string

	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if registry.Supports(filePath) {
			files = append(files, filePath)
		}

		return nil
	})

	return files, err
}
