// Package srs implements the spaced repetition scheduling algorithm used for
// vocabulary reviews. It is a quality-graded SM-2 variant: reviews are scored
// 0-5 and the schedule, ease factor and mastery level are derived purely from
// the item's current state and that grade.
package srs

// Params defines all configurable parameters for the SRS algorithm.
type Params struct {
	// MinEaseFactor floors the ease factor so intervals keep growing even
	// for chronically difficult items.
	MinEaseFactor float64

	// SuccessThreshold is the minimum quality grade counted as a successful
	// recall.
	SuccessThreshold int

	// MasteryThreshold is the minimum quality grade that increases the
	// mastery level.
	MasteryThreshold int

	// FailInterval is the interval (in days) an item resets to after a
	// failed recall.
	FailInterval int

	// FirstSuccessInterval is the interval granted on the first successful
	// recall, before multiplicative growth kicks in.
	FirstSuccessInterval int

	// FailEasePenalty is subtracted from the ease factor on failure.
	FailEasePenalty float64

	// MasteryGain and MasteryPenalty adjust the 0-100 mastery level on
	// confident recalls and failures respectively.
	MasteryGain    int
	MasteryPenalty int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero-valued fields keep their defaults.
type ParamsConfig struct {
	MinEaseFactor        float64
	SuccessThreshold     int
	MasteryThreshold     int
	FailInterval         int
	FirstSuccessInterval int
	FailEasePenalty      float64
	MasteryGain          int
	MasteryPenalty       int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:        1.3,
		SuccessThreshold:     3,
		MasteryThreshold:     4,
		FailInterval:         1,
		FirstSuccessInterval: 6,
		FailEasePenalty:      0.2,
		MasteryGain:          10,
		MasteryPenalty:       15,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.SuccessThreshold > 0 {
		params.SuccessThreshold = config.SuccessThreshold
	}
	if config.MasteryThreshold > 0 {
		params.MasteryThreshold = config.MasteryThreshold
	}
	if config.FailInterval > 0 {
		params.FailInterval = config.FailInterval
	}
	if config.FirstSuccessInterval > 0 {
		params.FirstSuccessInterval = config.FirstSuccessInterval
	}
	if config.FailEasePenalty > 0 {
		params.FailEasePenalty = config.FailEasePenalty
	}
	if config.MasteryGain > 0 {
		params.MasteryGain = config.MasteryGain
	}
	if config.MasteryPenalty > 0 {
		params.MasteryPenalty = config.MasteryPenalty
	}

	return params
}
