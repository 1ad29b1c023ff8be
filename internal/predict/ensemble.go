package predict

import (
	"sort"

	"equipment-maintenance-backend/internal/model"
)

// Decision threshold for the fused probability. Deliberately below 0.5 to
// favor recall over precision.
const decisionThreshold = 0.4

// Prediction is one device's fused verdict.
type Prediction struct {
	EquipmentID       string  `json:"equipment_id"`
	MaintenanceNeeded int     `json:"maintenance_needed"`
	ConfidenceScore   float64 `json:"confidence_score"`
}

// Engine evaluates the frozen two-model ensemble. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	art *Artifacts
}

// NewEngine creates an engine over loaded artifacts.
func NewEngine(art *Artifacts) *Engine {
	return &Engine{art: art}
}

// PredictBatch windows, scales and evaluates every device present in logs.
// Devices with fewer than WindowSize logs are silently excluded. An empty
// result means there was nothing to predict, not an error.
func (e *Engine) PredictBatch(logs []model.UsageLog) []Prediction {
	byEquipment := make(map[string][]model.UsageLog)
	for _, l := range logs {
		byEquipment[l.EquipmentID] = append(byEquipment[l.EquipmentID], l)
	}

	ids := make([]string, 0, len(byEquipment))
	for id := range byEquipment {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var results []Prediction
	for _, id := range ids {
		window, ok := BuildWindow(byEquipment[id])
		if !ok {
			continue
		}
		results = append(results, e.PredictOne(id, window))
	}
	return results
}

// PredictOne scales a raw window and fuses the two model probabilities with
// an unweighted mean.
func (e *Engine) PredictOne(equipmentID string, window [][]float64) Prediction {
	scaled := e.art.WindowScaler.TransformWindow(window)

	seqProb := e.art.Sequence.Predict(scaled)
	tabProb := e.art.Tabular.PredictProba(Flatten(scaled))
	prob := (seqProb + tabProb) / 2

	needed := 0
	if prob > decisionThreshold {
		needed = 1
	}
	return Prediction{
		EquipmentID:       equipmentID,
		MaintenanceNeeded: needed,
		ConfidenceScore:   prob,
	}
}
