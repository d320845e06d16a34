package filter

import (
	"chanmask/spectra"
)

// Tsys flags channels whose mean power falls below a fraction of the median
// channel power. The target is anomalously cold channels (band edges,
// attenuated receivers), not hot RFI spikes, so the comparison is strictly
// less-than.
type Tsys[T spectra.Sample] struct {
	// Tolerance is the fraction of the median bandpass power below which a
	// channel is flagged. Typically in (0, 1].
	Tolerance float64

	// Workers shards the bandpass reduction across goroutines when > 1.
	Workers int
}

func (t *Tsys[T]) Name() string { return "tsys" }

// Evaluation carries the intermediate statistics of one Tsys run alongside
// the per-channel mask, for callers that export or log them.
type Evaluation struct {
	Profile   []float64
	Median    float64
	Threshold float64
	Mask      []bool
}

// Evaluate computes the bandpass profile, its median, the resulting power
// threshold and the per-channel mask for the given view.
func (t *Tsys[T]) Evaluate(v spectra.View[T]) (*Evaluation, error) {
	var (
		profile []float64
		err     error
	)
	if t.Workers > 1 {
		profile, err = spectra.BandpassParallel(v, t.Workers)
	} else {
		profile, err = spectra.Bandpass(v)
	}
	if err != nil {
		return nil, err
	}

	median, err := spectra.Median(profile)
	if err != nil {
		return nil, err
	}

	threshold := t.Tolerance * median
	m := make([]bool, len(profile))
	for c, p := range profile {
		m[c] = p < threshold
	}
	return &Evaluation{
		Profile:   profile,
		Median:    median,
		Threshold: threshold,
		Mask:      m,
	}, nil
}

func (t *Tsys[T]) Mask(v spectra.View[T]) ([]bool, error) {
	eval, err := t.Evaluate(v)
	if err != nil {
		return nil, err
	}
	return eval.Mask, nil
}
