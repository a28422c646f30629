package tui

import (
	"math"
	"strings"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values in at most width cells, scaled to their own range.
func Sparkline(values []float64, width int) string {
	lo, hi := bounds(values)
	return SparklineScaled(values, width, lo, hi)
}

// SparklineScaled draws values against a fixed [lo, hi] range so that
// several lines can share a scale. Values are averaged into buckets when
// there are more values than cells.
func SparklineScaled(values []float64, width int, lo, hi float64) string {
	buckets := downsample(values, width)
	if len(buckets) == 0 {
		return ""
	}

	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range buckets {
		level := 0
		if hi > lo {
			level = int(math.Round((v - lo) / (hi - lo) * float64(top)))
			level = min(max(level, 0), top)
		}
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}

func downsample(values []float64, width int) []float64 {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	if n <= width {
		return values
	}

	out := make([]float64, width)
	for i := range out {
		start := i * n / width
		end := (i + 1) * n / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func bounds(series ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, values := range series {
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}
