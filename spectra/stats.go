package spectra

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

// Median returns the median of profile using midpoint interpolation: the
// exact central order statistic for odd lengths, the arithmetic mean of the
// two central order statistics for even lengths. The caller's slice is not
// reordered.
func Median(profile []float64) (float64, error) {
	m, err := stats.Median(profile)
	if err != nil {
		if errors.Is(err, stats.EmptyInputErr) {
			return 0, fmt.Errorf("median: %w", ErrEmptyInput)
		}
		return 0, fmt.Errorf("median: %s", err)
	}
	return m, nil
}
