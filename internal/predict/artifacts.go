package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Artifacts bundles the four frozen parameter sets plus the three priority
// classifiers. Loaded once at process start and shared read-only across
// concurrent evaluations.
type Artifacts struct {
	WindowScaler   *Scaler
	PriorityScaler *Scaler
	Sequence       *SequenceModel
	Tabular        *TabularModel
	Priority       map[string]*PriorityModel
}

// MaintenanceTypes are the three independently classified maintenance types.
var MaintenanceTypes = []string{"preventive", "corrective", "replacement"}

// SequenceModel is a single-layer recurrent network with a sigmoid head,
// evaluated stepwise over a feature window.
type SequenceModel struct {
	InputWeights  [][]float64 `json:"input_weights"`  // hidden x features
	HiddenWeights [][]float64 `json:"hidden_weights"` // hidden x hidden
	HiddenBias    []float64   `json:"hidden_bias"`
	OutputWeights []float64   `json:"output_weights"`
	OutputBias    float64     `json:"output_bias"`
}

// Predict runs the recurrence over the window rows and returns the failure
// probability in [0,1].
func (m *SequenceModel) Predict(window [][]float64) float64 {
	hidden := make([]float64, len(m.HiddenBias))
	next := make([]float64, len(hidden))

	for _, row := range window {
		for h := range next {
			sum := m.HiddenBias[h]
			for f, v := range row {
				sum += m.InputWeights[h][f] * v
			}
			for k, prev := range hidden {
				sum += m.HiddenWeights[h][k] * prev
			}
			next[h] = math.Tanh(sum)
		}
		hidden, next = next, hidden
	}

	out := m.OutputBias
	for h, v := range hidden {
		out += m.OutputWeights[h] * v
	}
	return sigmoid(out)
}

func (m *SequenceModel) validate() error {
	hidden := len(m.HiddenBias)
	if hidden == 0 {
		return fmt.Errorf("sequence model has no hidden units")
	}
	if len(m.InputWeights) != hidden || len(m.HiddenWeights) != hidden || len(m.OutputWeights) != hidden {
		return fmt.Errorf("sequence model weight shapes do not match %d hidden units", hidden)
	}
	for h := range m.InputWeights {
		if len(m.InputWeights[h]) != NumFeatures {
			return fmt.Errorf("sequence model input weights row %d expects %d features", h, NumFeatures)
		}
		if len(m.HiddenWeights[h]) != hidden {
			return fmt.Errorf("sequence model hidden weights row %d expects %d units", h, hidden)
		}
	}
	return nil
}

// TabularModel is a logistic regression over the flattened window. Its
// sigmoid output is the positive-class probability.
type TabularModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// PredictProba returns the positive-class probability for a flattened window.
func (m *TabularModel) PredictProba(flat []float64) float64 {
	sum := m.Bias
	for i, v := range flat {
		sum += m.Weights[i] * v
	}
	return sigmoid(sum)
}

func (m *TabularModel) validate() error {
	if len(m.Weights) != WindowSize*NumFeatures {
		return fmt.Errorf("tabular model expects %d weights, got %d", WindowSize*NumFeatures, len(m.Weights))
	}
	return nil
}

// PriorityModel is a three-class linear classifier over the scaled
// equipment-level feature vector.
type PriorityModel struct {
	Weights [][]float64 `json:"weights"` // classes x features
	Bias    []float64   `json:"bias"`
}

// Predict returns the argmax class index: 0=Low, 1=Medium, 2=High.
func (m *PriorityModel) Predict(features []float64) int {
	best, bestScore := 0, math.Inf(-1)
	for c := range m.Bias {
		score := m.Bias[c]
		for f, v := range features {
			score += m.Weights[c][f] * v
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func (m *PriorityModel) validate() error {
	if len(m.Bias) != 3 || len(m.Weights) != 3 {
		return fmt.Errorf("priority model expects 3 classes, got %d", len(m.Bias))
	}
	for c := range m.Weights {
		if len(m.Weights[c]) != NumPriorityFeatures {
			return fmt.Errorf("priority model class %d expects %d features", c, NumPriorityFeatures)
		}
	}
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LoadArtifacts reads all frozen parameter sets from dir. It is called once
// at startup; the returned value must not be mutated afterwards.
func LoadArtifacts(dir string) (*Artifacts, error) {
	art := &Artifacts{
		WindowScaler:   &Scaler{},
		PriorityScaler: &Scaler{},
		Sequence:       &SequenceModel{},
		Tabular:        &TabularModel{},
		Priority:       make(map[string]*PriorityModel, len(MaintenanceTypes)),
	}

	if err := loadJSON(filepath.Join(dir, "window_scaler.json"), art.WindowScaler); err != nil {
		return nil, err
	}
	if err := art.WindowScaler.Validate(NumFeatures); err != nil {
		return nil, fmt.Errorf("window_scaler.json: %w", err)
	}

	if err := loadJSON(filepath.Join(dir, "priority_scaler.json"), art.PriorityScaler); err != nil {
		return nil, err
	}
	if err := art.PriorityScaler.Validate(NumPriorityFeatures); err != nil {
		return nil, fmt.Errorf("priority_scaler.json: %w", err)
	}

	if err := loadJSON(filepath.Join(dir, "sequence_model.json"), art.Sequence); err != nil {
		return nil, err
	}
	if err := art.Sequence.validate(); err != nil {
		return nil, fmt.Errorf("sequence_model.json: %w", err)
	}

	if err := loadJSON(filepath.Join(dir, "tabular_model.json"), art.Tabular); err != nil {
		return nil, err
	}
	if err := art.Tabular.validate(); err != nil {
		return nil, fmt.Errorf("tabular_model.json: %w", err)
	}

	for _, mtype := range MaintenanceTypes {
		m := &PriorityModel{}
		if err := loadJSON(filepath.Join(dir, mtype+"_model.json"), m); err != nil {
			return nil, err
		}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("%s_model.json: %w", mtype, err)
		}
		art.Priority[mtype] = m
	}

	return art, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
