package kinetics

// The transit detector walks a state trajectory once, tracking which of the
// two boundary states (0 and n-1) was visited most recently. A new arrival
// at one boundary after last touching the other closes a transit event.

// boundary identifies the last-visited end of the state range.
type boundary int

const (
	boundaryNone boundary = iota
	boundaryLower
	boundaryUpper
)

// Reporting units for transit durations.
const (
	UnitStep = "step"
	UnitPs   = "ps"
	UnitNs   = "ns"
)

// unitUpgradeThreshold is the duration at which ps values are rescaled to ns.
const unitUpgradeThreshold = 10000

// TransitTimes holds the boundary-crossing kinetics of one trajectory.
// Forward durations are 0 -> n-1 transits, Backward are n-1 -> 0, and
// RoundTrip[i] = Forward[i] + Backward[i] after the two lists are
// reconciled to equal length.
type TransitTimes struct {
	Forward   []float64
	Backward  []float64
	RoundTrip []float64

	// Unit labels all three lists ("step", "ps", or "ns").
	Unit string

	// SawLower and SawUpper report whether each boundary was visited at
	// least once. When either is false the three lists are empty; that is
	// a valid "no crossing observed" result, not an error.
	SawLower bool
	SawUpper bool
}

// DetectTransits scans a state trajectory and extracts transit and
// round-trip durations between the boundary states 0 and n-1.
//
// Durations are step counts unless dt > 0, in which case they are scaled to
// physical time (dt ps per step). If the largest duration across all three
// lists reaches 10000 ps, every duration is rescaled to ns; the rescale is
// global so the lists stay in a common unit.
func DetectTransits(trajectory []int, n int, dt float64) (TransitTimes, error) {
	if err := checkRange(trajectory, n); err != nil {
		return TransitTimes{}, err
	}

	k := n - 1
	last := boundaryNone
	var lowerArrivals, upperArrivals []int
	var forward, backward []float64
	tt := TransitTimes{Unit: UnitStep}

	for t, s := range trajectory {
		if s == 0 {
			tt.SawLower = true
			if last != boundaryLower {
				lowerArrivals = append(lowerArrivals, t)
				if last == boundaryUpper {
					backward = append(backward, float64(t-upperArrivals[len(upperArrivals)-1]))
				}
				last = boundaryLower
			}
		}
		if s == k {
			tt.SawUpper = true
			if last != boundaryUpper {
				upperArrivals = append(upperArrivals, t)
				if last == boundaryLower {
					forward = append(forward, float64(t-lowerArrivals[len(lowerArrivals)-1]))
				}
				last = boundaryUpper
			}
		}
	}

	if !tt.SawLower || !tt.SawUpper {
		return tt, nil
	}

	// The trajectory may begin or end mid-cycle, leaving one list longer by
	// one; drop the unpaired tail so the lists can be summed element-wise.
	if len(forward) > len(backward) {
		forward = forward[:len(backward)]
	} else if len(backward) > len(forward) {
		backward = backward[:len(forward)]
	}

	roundTrip := make([]float64, len(forward))
	for i := range forward {
		roundTrip[i] = forward[i] + backward[i]
	}

	if dt > 0 {
		tt.Unit = UnitPs
		scale(forward, dt)
		scale(backward, dt)
		scale(roundTrip, dt)
		if maxOf(forward, backward, roundTrip) >= unitUpgradeThreshold {
			tt.Unit = UnitNs
			scale(forward, 1e-3)
			scale(backward, 1e-3)
			scale(roundTrip, 1e-3)
		}
	}

	tt.Forward = forward
	tt.Backward = backward
	tt.RoundTrip = roundTrip
	return tt, nil
}

func scale(xs []float64, f float64) {
	for i := range xs {
		xs[i] *= f
	}
}

func maxOf(lists ...[]float64) float64 {
	var max float64
	for _, xs := range lists {
		for _, v := range xs {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// Mean returns the arithmetic mean of xs, or 0 for an empty list.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}
