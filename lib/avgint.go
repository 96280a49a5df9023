package lib

import "math"

// AverageInt64 compute statistical mean, variance and standard
// deviation over int64 samples.
type AverageInt64 struct {
	n      int64
	minval int64
	maxval int64
	sum    int64
	sumsq  float64
	init   bool
}

// Add a sample.
func (av *AverageInt64) Add(sample int64) {
	av.n++
	av.sum += sample
	f := float64(sample)
	av.sumsq += f * f
	if av.init == false || sample < av.minval {
		av.minval = sample
		av.init = true
	}
	if av.maxval < sample {
		av.maxval = sample
	}
}

// Min return minimum of all samples.
func (av *AverageInt64) Min() int64 {
	return av.minval
}

// Max return maximum of all samples.
func (av *AverageInt64) Max() int64 {
	return av.maxval
}

// Samples return total number of samples.
func (av *AverageInt64) Samples() int64 {
	return av.n
}

// Sum return sum of all samples.
func (av *AverageInt64) Sum() int64 {
	return av.sum
}

// Mean return average of all samples.
func (av *AverageInt64) Mean() int64 {
	if av.n == 0 {
		return 0
	}
	return int64(float64(av.sum) / float64(av.n))
}

// Variance of all samples.
func (av *AverageInt64) Variance() float64 {
	if av.n == 0 {
		return 0
	}
	n_f, mean_f := float64(av.n), float64(av.sum)/float64(av.n)
	return (av.sumsq / n_f) - (mean_f * mean_f)
}

// SD standard deviation of all samples.
func (av *AverageInt64) SD() float64 {
	if av.n == 0 {
		return 0
	}
	return math.Sqrt(av.Variance())
}

// Clone copies the entire instance.
func (av *AverageInt64) Clone() *AverageInt64 {
	newav := (*av)
	return &newav
}

// Stats return a map of statistics.
func (av *AverageInt64) Stats() map[string]interface{} {
	return map[string]interface{}{
		"samples":     av.Samples(),
		"min":         av.Min(),
		"max":         av.Max(),
		"mean":        av.Mean(),
		"variance":    av.Variance(),
		"stddeviance": av.SD(),
	}
}
