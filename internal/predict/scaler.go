package predict

import "fmt"

// Scaler kinds supported by the frozen artifact files.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler applies a previously fitted per-feature normalization. The
// parameters are fitted offline and never change at runtime.
type Scaler struct {
	Kind string    `json:"kind"`
	Mean []float64 `json:"mean,omitempty"`
	Std  []float64 `json:"std,omitempty"`
	Min  []float64 `json:"min,omitempty"`
	Max  []float64 `json:"max,omitempty"`
}

// Validate checks that the scaler parameters cover exactly dim features.
func (s *Scaler) Validate(dim int) error {
	switch s.Kind {
	case ScalerStandard:
		if len(s.Mean) != dim || len(s.Std) != dim {
			return fmt.Errorf("standard scaler expects %d mean/std values, got %d/%d", dim, len(s.Mean), len(s.Std))
		}
		for i, sd := range s.Std {
			if sd == 0 {
				return fmt.Errorf("standard scaler has zero std at feature %d", i)
			}
		}
	case ScalerMinMax:
		if len(s.Min) != dim || len(s.Max) != dim {
			return fmt.Errorf("minmax scaler expects %d min/max values, got %d/%d", dim, len(s.Min), len(s.Max))
		}
		for i := range s.Min {
			if s.Max[i] == s.Min[i] {
				return fmt.Errorf("minmax scaler has zero range at feature %d", i)
			}
		}
	default:
		return fmt.Errorf("unknown scaler kind %q", s.Kind)
	}
	return nil
}

// Transform scales a single feature vector.
func (s *Scaler) Transform(vec []float64) []float64 {
	out := make([]float64, len(vec))
	switch s.Kind {
	case ScalerMinMax:
		for i, v := range vec {
			out[i] = (v - s.Min[i]) / (s.Max[i] - s.Min[i])
		}
	default: // standard
		for i, v := range vec {
			out[i] = (v - s.Mean[i]) / s.Std[i]
		}
	}
	return out
}

// TransformWindow scales every row of a feature window.
func (s *Scaler) TransformWindow(window [][]float64) [][]float64 {
	out := make([][]float64, len(window))
	for i, row := range window {
		out[i] = s.Transform(row)
	}
	return out
}
