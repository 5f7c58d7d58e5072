package signal

import "math"

// Pronunciation blend weights and scaling.
const (
	consistencyWeight = 0.4
	clarityWeight     = 0.6
	clarityScale      = 10.0

	// rmsEpsilon guards the division when a recording is near-silent.
	rmsEpsilon = 1e-6
)

// AudioFeatures carries the frame-level acoustic series decoded from one
// answer recording. Both series are empty when the audio could not be
// decoded.
type AudioFeatures struct {
	// RMS is the per-frame root-mean-square energy.
	RMS []float64 `json:"rms"`

	// ZCR is the per-frame zero-crossing rate.
	ZCR []float64 `json:"zcr"`
}

// PronunciationScore derives a [0, 1] pronunciation estimate from the
// acoustic series. Consistency rewards stable energy delivery (low RMS
// variation); clarity rewards articulation (scaled mean zero-crossing rate).
// The two are blended 40/60.
//
// Undecodable audio (an empty series) scores 0 with degraded set, so the
// caller can surface the failure without blocking the attempt.
func PronunciationScore(features AudioFeatures) (score float64, degraded bool) {
	if len(features.RMS) == 0 || len(features.ZCR) == 0 {
		return 0, true
	}

	meanRMS := mean(features.RMS)
	consistency := 1 - math.Min(stddev(features.RMS, meanRMS)/(meanRMS+rmsEpsilon), 1)
	clarity := math.Min(mean(features.ZCR)*clarityScale, 1)

	blended := consistencyWeight*consistency + clarityWeight*clarity
	if blended < 0 {
		blended = 0
	}
	if blended > 1 {
		blended = 1
	}
	return blended, false
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev computes the population standard deviation.
func stddev(xs []float64, mean float64) float64 {
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
