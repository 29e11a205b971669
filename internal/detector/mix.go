package detector

// MixDown 把交错排列的多声道采样按采样点取平均得到单声道
// 末尾不完整的采样帧会被丢弃
func MixDown(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	n := len(interleaved) / channels
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
