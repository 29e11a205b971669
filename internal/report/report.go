package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"silence-cutter/internal/detector"
	"silence-cutter/internal/types"
)

// Build 汇总检测结果
// NewDuration 为各片段时长之和，RemovedDuration 为原始时长与其之差
func Build(inputFile string, originalDuration float64, segments []types.Interval, params types.DetectionParams) *types.Report {
	if segments == nil {
		segments = []types.Interval{}
	}

	kept := 0.0
	for _, seg := range segments {
		kept += seg.Duration
	}

	return &types.Report{
		InputFile:        inputFile,
		OriginalDuration: detector.Round3(originalDuration),
		NewDuration:      detector.Round3(kept),
		RemovedDuration:  detector.Round3(originalDuration - kept),
		NumberOfSegments: len(segments),
		Segments:         segments,
		Parameters:       params,
	}
}

// Marshal 以两个空格缩进序列化报告
func Marshal(r *types.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("JSON序列化失败: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile 把报告写入 path，必要时创建父目录
func WriteFile(path string, r *types.Report) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}

// OutputPath 决定报告路径，报告名保留输入文件的扩展名
//
// output 为空时写在输入文件旁边（<文件名>.segments.json）；
// outputIsDir 为真时写入 output 目录，并保留输入相对 inputRoot 的子目录（<相对路径>.json）；
// 否则 output 即报告路径。
func OutputPath(inputFile, inputRoot, output string, outputIsDir bool) string {
	switch {
	case output == "":
		return inputFile + ".segments.json"
	case outputIsDir:
		return filepath.Join(output, relativeName(inputFile, inputRoot)+".json")
	default:
		return output
	}
}

// relativeName 输入在 inputRoot 之下时返回相对路径，否则只取文件名
func relativeName(inputFile, inputRoot string) string {
	if inputRoot != "" {
		rel, err := filepath.Rel(inputRoot, inputFile)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return filepath.Base(inputFile)
}
