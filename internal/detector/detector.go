package detector

import (
	"errors"
	"fmt"
	"math"

	"silence-cutter/internal/types"
)

// Epsilon 取对数前加到幅值上的下限（float64 机器精度），避免 log(0)
const Epsilon = 2.220446049250313e-16

// ErrInvalidParameter 参数错误，所有参数校验失败都包装该错误
var ErrInvalidParameter = errors.New("参数无效")

// Validate 校验采样率与检测参数
func Validate(sampleRate int, params types.DetectionParams) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: 采样率必须为正数, 实际为 %d", ErrInvalidParameter, sampleRate)
	}
	if math.IsNaN(params.MinDuration) || params.MinDuration <= 0 {
		return fmt.Errorf("%w: 最短时长必须为正数, 实际为 %v", ErrInvalidParameter, params.MinDuration)
	}
	if math.IsNaN(params.Buffer) || math.IsInf(params.Buffer, 0) || params.Buffer < 0 {
		return fmt.Errorf("%w: 缓冲时长不能为负数, 实际为 %v", ErrInvalidParameter, params.Buffer)
	}
	if math.IsNaN(params.ThresholdDB) {
		return fmt.Errorf("%w: 阈值不能为 NaN", ErrInvalidParameter)
	}
	return nil
}

// Detect 在单声道采样中查找非静音片段
//
// 每个采样先换算成相对整段峰值的分贝数，高于 ThresholdDB 的记为活动；
// 活动掩码按 Buffer 秒向两侧膨胀后提取连续区间，最后丢弃短于 MinDuration 的区间。
// 返回的区间按起点升序且互不重叠。空输入返回空列表，不是错误。
func Detect(samples []float64, sampleRate int, params types.DetectionParams) ([]types.Interval, error) {
	if err := Validate(sampleRate, params); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return []types.Interval{}, nil
	}

	mask := ActivityMask(samples, params.ThresholdDB)
	mask = Dilate(mask, bufferRadius(params.Buffer, sampleRate, len(mask)))

	return extractIntervals(mask, sampleRate, params.MinDuration), nil
}

// bufferRadius 把缓冲时长换算为采样数（四舍五入）
// 半径不小于 n 时膨胀结果相同，因此在浮点域截到 n，避免大缓冲值转换 int 时溢出
func bufferRadius(buffer float64, sampleRate, n int) int {
	r := math.Round(buffer * float64(sampleRate))
	if r >= float64(n) {
		return n
	}
	return int(r)
}

// ActivityMask 计算每个采样的活动标记
//
// db = 20*log10((|x|+Epsilon) / (peak+Epsilon))，峰值映射到 0 dB。
// 严格大于阈值才算活动。峰值为 0（全零）时没有任何活动采样。
func ActivityMask(samples []float64, thresholdDB float64) []bool {
	mask := make([]bool, len(samples))

	peak := 0.0
	for _, x := range samples {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return mask
	}

	ref := peak + Epsilon
	for i, x := range samples {
		db := 20 * math.Log10((math.Abs(x)+Epsilon)/ref)
		mask[i] = db > thresholdDB
	}
	return mask
}

// Dilate 以半径 radius 对掩码做形态学膨胀
//
// 输出的第 i 位为真，当且仅当原掩码在 [i-radius, i+radius]（越界部分截到边缘）内存在真值。
// 只读取原掩码，不会在已膨胀的结果上重复膨胀。
func Dilate(mask []bool, radius int) []bool {
	out := make([]bool, len(mask))
	if radius <= 0 {
		copy(out, mask)
		return out
	}

	// 正向：距左侧最近活动点不超过 radius
	last := -1
	for i, active := range mask {
		if active {
			last = i
		}
		if last >= 0 && i-last <= radius {
			out[i] = true
		}
	}

	// 反向：距右侧最近活动点不超过 radius
	next := -1
	for i := len(mask) - 1; i >= 0; i-- {
		if mask[i] {
			next = i
		}
		if next >= 0 && next-i <= radius {
			out[i] = true
		}
	}

	return out
}

// extractIntervals 从左到右扫描掩码，输出满足最短时长的连续活动区间
func extractIntervals(mask []bool, sampleRate int, minDuration float64) []types.Interval {
	intervals := []types.Interval{}
	start := -1

	for i, active := range mask {
		switch {
		case active && start < 0:
			start = i
		case !active && start >= 0:
			intervals = appendRun(intervals, start, i, sampleRate, minDuration)
			start = -1
		}
	}
	if start >= 0 {
		intervals = appendRun(intervals, start, len(mask), sampleRate, minDuration)
	}

	return intervals
}

// appendRun 把 [start, end) 采样区间换算成秒；时长过滤在取整之前进行
func appendRun(intervals []types.Interval, start, end, sampleRate int, minDuration float64) []types.Interval {
	rate := float64(sampleRate)
	duration := float64(end-start) / rate
	if duration < minDuration {
		return intervals
	}
	return append(intervals, types.Interval{
		Start:    Round3(float64(start) / rate),
		End:      Round3(float64(end) / rate),
		Duration: Round3(duration),
	})
}

// Round3 四舍五入到毫秒
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
