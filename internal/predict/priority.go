package predict

import "equipment-maintenance-backend/internal/model"

// NumPriorityFeatures is the dimension of the equipment-level feature vector.
const NumPriorityFeatures = 5

// PriorityInput is the aggregated equipment history fed to the priority
// classifiers, in the fixed feature order the scaler was fitted on.
type PriorityInput struct {
	EquipmentAgeYears float64
	DowntimeHours     float64
	NumFailures       float64
	ResponseTimeHours float64
	NeedsMaintenance  bool
}

func (in PriorityInput) vector() []float64 {
	flag := 0.0
	if in.NeedsMaintenance {
		flag = 1.0
	}
	return []float64{in.EquipmentAgeYears, in.DowntimeHours, in.NumFailures, in.ResponseTimeHours, flag}
}

// PriorityLabels holds one severity label per maintenance type. The three
// classifiers are independent; no cross-type consistency is implied.
type PriorityLabels struct {
	Preventive  model.PriorityLevel `json:"preventive"`
	Corrective  model.PriorityLevel `json:"corrective"`
	Replacement model.PriorityLevel `json:"replacement"`
}

var classLabels = [3]model.PriorityLevel{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}

// ClassifyPriority scales the feature vector and evaluates the three
// maintenance-type classifiers.
func (e *Engine) ClassifyPriority(in PriorityInput) PriorityLabels {
	scaled := e.art.PriorityScaler.Transform(in.vector())
	return PriorityLabels{
		Preventive:  classLabels[e.art.Priority["preventive"].Predict(scaled)],
		Corrective:  classLabels[e.art.Priority["corrective"].Predict(scaled)],
		Replacement: classLabels[e.art.Priority["replacement"].Predict(scaled)],
	}
}
