package cutter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"silence-cutter/internal/decoder"
	"silence-cutter/internal/detector"
	"silence-cutter/internal/report"
	"silence-cutter/internal/types"

	"github.com/schollz/progressbar/v3"
)

// Cutter 批量检测音视频文件中的非静音片段
type Cutter struct {
	config          *types.CutterConfig
	decoderRegistry *decoder.DecoderRegistry
	logger          *slog.Logger

	// Out 接收结果输出，ProgressOut 接收进度条
	Out         io.Writer
	ProgressOut io.Writer
}

// NewCutter 创建新的批处理器
func NewCutter(config *types.CutterConfig, registry *decoder.DecoderRegistry, logger *slog.Logger) *Cutter {
	if registry == nil {
		registry = decoder.NewDecoderRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cutter{
		config:          config,
		decoderRegistry: registry,
		logger:          logger,
		Out:             os.Stdout,
		ProgressOut:     os.Stderr,
	}
}

// ProcessFiles 处理多个文件，返回与输入顺序一致的结果
func (c *Cutter) ProcessFiles(filePaths []string) []*types.CutResult {
	// 创建进度条
	var bar *progressbar.ProgressBar
	if !c.config.Quiet && !c.config.JSONOutput {
		bar = progressbar.NewOptions(len(filePaths),
			progressbar.OptionSetWriter(c.ProgressOut),
			progressbar.OptionSetDescription("检测非静音片段"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowIts(),
		)
	}

	workers := c.config.Concurrency
	if workers <= 0 {
		workers = 1
	}

	type job struct {
		index int
		path  string
	}
	type indexed struct {
		index  int
		result *types.CutResult
	}

	jobs := make(chan job, len(filePaths))
	results := make(chan indexed, len(filePaths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- indexed{index: j.index, result: c.ProcessFile(j.path)}
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	// 报告路径冲突的文件直接记为错误，避免并发写同一个报告
	allResults := make([]*types.CutResult, len(filePaths))
	claimed := make(map[string]string, len(filePaths))
	for i, filePath := range filePaths {
		reportPath := filepath.Clean(c.reportPath(filePath))
		if owner, exists := claimed[reportPath]; exists {
			allResults[i] = &types.CutResult{
				FilePath: filePath,
				Status:   types.StatusError,
				Error:    fmt.Sprintf("报告路径 %s 与 %s 冲突", reportPath, owner),
			}
			c.logger.Warn("报告路径冲突", "file", filePath, "report", reportPath, "owner", owner)
			c.outputResult(allResults[i])
			if bar != nil {
				bar.Add(1)
			}
			continue
		}
		claimed[reportPath] = filePath
		jobs <- job{index: i, path: filePath}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// 结果按完成顺序输出，按输入顺序返回
	for r := range results {
		allResults[r.index] = r.result
		c.outputResult(r.result)
	}

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(c.ProgressOut)
	}

	if !c.config.Quiet && !c.config.JSONOutput {
		c.printSummary(allResults)
	}

	return allResults
}

// ProcessFile 处理单个文件：解码、混为单声道、检测、写出报告
func (c *Cutter) ProcessFile(filePath string) *types.CutResult {
	result := &types.CutResult{
		FilePath: filePath,
		Status:   types.StatusError,
	}
	logger := c.logger.With("file", filePath)
	logger.Debug("开始处理")

	audioFile, err := c.decoderRegistry.DecodeFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("解码失败: %v", err)
		logger.Warn("解码失败", "error", err)
		return result
	}
	defer audioFile.Close()

	result.Format = audioFile.GetFormat()
	result.SampleRate = audioFile.GetSampleRate()
	result.Channels = audioFile.GetChannels()

	samples, err := audioFile.GetSamples()
	if err != nil {
		result.Error = fmt.Sprintf("读取音频数据失败: %v", err)
		logger.Warn("读取音频数据失败", "error", err)
		return result
	}

	// 部分格式在读取采样后才能确定时长，元数据放在之后获取
	result.Metadata = audioFile.GetMetadata()

	mono := detector.MixDown(samples, audioFile.GetChannels())
	logger.Debug("音频已解码",
		"format", result.Format,
		"sample_rate", result.SampleRate,
		"channels", result.Channels,
		"samples", len(mono),
	)

	intervals, err := detector.Detect(mono, audioFile.GetSampleRate(), c.config.Params)
	if err != nil {
		result.Error = fmt.Sprintf("检测失败: %v", err)
		logger.Warn("检测失败", "error", err)
		return result
	}

	rep := report.Build(filePath, audioFile.GetDuration().Seconds(), intervals, c.config.Params)
	result.Report = rep

	if len(intervals) == 0 {
		result.Status = types.StatusEmpty
		logger.Info("未找到非静音片段")
		return result
	}

	reportPath := c.reportPath(filePath)
	if err := report.WriteFile(reportPath, rep); err != nil {
		result.Error = err.Error()
		logger.Warn("写入报告失败", "path", reportPath, "error", err)
		return result
	}

	result.ReportPath = reportPath
	result.Status = types.StatusOK
	logger.Info("处理完成",
		"segments", rep.NumberOfSegments,
		"kept", rep.NewDuration,
		"removed", rep.RemovedDuration,
		"report", reportPath,
	)

	return result
}

// reportPath 返回文件对应的报告路径
func (c *Cutter) reportPath(filePath string) string {
	return report.OutputPath(filePath, c.config.InputRoot, c.config.Output, c.config.OutputIsDir)
}

// outputResult 输出单个处理结果
func (c *Cutter) outputResult(result *types.CutResult) {
	// 静默模式，只输出报告路径
	if c.config.Quiet {
		if result.Status == types.StatusOK {
			fmt.Fprintln(c.Out, result.ReportPath)
		}
		return
	}

	// JSON输出格式
	if c.config.JSONOutput {
		jsonData, err := json.Marshal(result)
		if err != nil {
			c.logger.Error("JSON序列化失败", "file", result.FilePath, "error", err)
			return
		}
		fmt.Fprintln(c.Out, string(jsonData))
		return
	}

	c.printDetailedResult(result)
}

// printDetailedResult 打印详细结果
func (c *Cutter) printDetailedResult(result *types.CutResult) {
	w := c.Out
	fmt.Fprintf(w, "\n=== %s ===\n", filepath.Base(result.FilePath))
	fmt.Fprintf(w, "路径: %s\n", result.FilePath)
	fmt.Fprintf(w, "格式: %s\n", result.Format)
	fmt.Fprintf(w, "状态: %s\n", result.Status)

	if result.Status == types.StatusError {
		fmt.Fprintf(w, "错误: %s\n", result.Error)
		return
	}

	fmt.Fprintf(w, "采样率: %d Hz\n", result.SampleRate)
	fmt.Fprintf(w, "声道数: %d\n", result.Channels)

	rep := result.Report
	fmt.Fprintf(w, "原始时长: %.2f 秒\n", rep.OriginalDuration)

	if result.Status == types.StatusEmpty {
		fmt.Fprintf(w, "未找到非静音片段，请尝试调整静音阈值 (当前 %.1f dB)\n", rep.Parameters.ThresholdDB)
		return
	}

	fmt.Fprintf(w, "片段数: %d\n", rep.NumberOfSegments)
	fmt.Fprintf(w, "保留时长: %.2f 秒\n", rep.NewDuration)
	fmt.Fprintf(w, "删除时长: %.2f 秒\n", rep.RemovedDuration)
	fmt.Fprintf(w, "报告: %s\n", result.ReportPath)
}

// printSummary 打印统计摘要
func (c *Cutter) printSummary(results []*types.CutResult) {
	var ok, empty, failed int
	var original, kept float64

	for _, result := range results {
		switch result.Status {
		case types.StatusOK:
			ok++
		case types.StatusEmpty:
			empty++
		case types.StatusError:
			failed++
		}
		if result.Report != nil {
			original += result.Report.OriginalDuration
			kept += result.Report.NewDuration
		}
	}

	w := c.Out
	fmt.Fprintf(w, "\n=== 处理统计 ===\n")
	fmt.Fprintf(w, "总文件数: %d\n", len(results))
	fmt.Fprintf(w, "已生成报告: %d\n", ok)
	if empty > 0 {
		fmt.Fprintf(w, "无非静音片段: %d\n", empty)
	}
	if failed > 0 {
		fmt.Fprintf(w, "错误文件: %d\n", failed)
	}
	fmt.Fprintf(w, "原始总时长: %.2f 秒\n", original)
	fmt.Fprintf(w, "保留总时长: %.2f 秒\n", kept)
	fmt.Fprintf(w, "删除总时长: %.2f 秒\n", original-kept)
}

// CountFailed 统计处理失败的文件数
func CountFailed(results []*types.CutResult) (failed int) {
	for _, result := range results {
		if result.Status == types.StatusError {
			failed++
		}
	}
	return failed
}
