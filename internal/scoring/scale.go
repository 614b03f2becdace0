package scoring

// scaleEpsilon substitutes for degenerate calibration spans so the
// scaler saturates instead of dividing by zero.
const scaleEpsilon = 1e-9

// scale maps a raw measure onto [0, 25] piecewise-linearly: values at or
// below low score 0, values at or above high score 25, and the low-mid
// and mid-high spans interpolate onto [0, 12.5] and [12.5, 25].
func scale(value float64, b Band) float64 {
	if value <= b.Low {
		return 0
	}
	if value >= b.High {
		return 25
	}
	if value <= b.Mid {
		span := b.Mid - b.Low
		if span < scaleEpsilon {
			span = scaleEpsilon
		}
		return (value - b.Low) / span * 12.5
	}
	span := b.High - b.Mid
	if span < scaleEpsilon {
		span = scaleEpsilon
	}
	return 12.5 + (value-b.Mid)/span*12.5
}
