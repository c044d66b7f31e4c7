package fsrs

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// WeightCount is the number of model weights.
const WeightCount = 17

// Parameters tune the scheduler.
type Parameters struct {
	RequestRetention float64   `yaml:"request_retention" json:"request_retention"`
	MaximumInterval  int       `yaml:"maximum_interval" json:"maximum_interval"`
	W                []float64 `yaml:"weights" json:"w"`
}

var defaultWeights = []float64{
	0.4, 0.6, 2.4, 5.8, 4.93, 0.94, 0.86, 0.01, 1.49, 0.14, 0.94,
	2.18, 0.05, 0.34, 1.26, 0.29, 2.61,
}

// DefaultParameters returns 90% retention, a 100 year cap and the stock weights.
func DefaultParameters() Parameters {
	return Parameters{
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		W:                append([]float64(nil), defaultWeights...),
	}
}

func (p Parameters) withDefaults() Parameters {
	d := DefaultParameters()
	if p.RequestRetention == 0 {
		p.RequestRetention = d.RequestRetention
	}
	if p.MaximumInterval == 0 {
		p.MaximumInterval = d.MaximumInterval
	}
	if len(p.W) == 0 {
		p.W = d.W
	}
	return p
}

// Validate checks ranges. Zero values are accepted and replaced by defaults.
func (p *Parameters) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.RequestRetention, validation.Min(0.5), validation.Max(0.99)),
		validation.Field(&p.MaximumInterval, validation.Min(1), validation.Max(36500)),
		validation.Field(&p.W, validation.When(len(p.W) > 0, validation.Length(WeightCount, WeightCount))),
	)
}
