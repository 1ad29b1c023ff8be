package predict

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-maintenance-backend/internal/model"
)

func identityScaler(dim int) *Scaler {
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for i := range std {
		std[i] = 1
	}
	return &Scaler{Kind: ScalerStandard, Mean: mean, Std: std}
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// testArtifacts builds frozen parameters whose two members emit fixed
// probabilities regardless of input, so fusion arithmetic can be checked
// exactly.
func testArtifacts(seqProb, tabProb float64) *Artifacts {
	return &Artifacts{
		WindowScaler:   identityScaler(NumFeatures),
		PriorityScaler: identityScaler(NumPriorityFeatures),
		Sequence: &SequenceModel{
			InputWeights:  [][]float64{make([]float64, NumFeatures)},
			HiddenWeights: [][]float64{{0}},
			HiddenBias:    []float64{0},
			OutputWeights: []float64{0},
			OutputBias:    logit(seqProb),
		},
		Tabular: &TabularModel{
			Weights: make([]float64, WindowSize*NumFeatures),
			Bias:    logit(tabProb),
		},
		Priority: map[string]*PriorityModel{
			"preventive":  {Weights: [][]float64{make([]float64, 5), make([]float64, 5), make([]float64, 5)}, Bias: []float64{1, 0, 0}},
			"corrective":  {Weights: [][]float64{make([]float64, 5), make([]float64, 5), make([]float64, 5)}, Bias: []float64{1, 0, 0}},
			"replacement": {Weights: [][]float64{make([]float64, 5), make([]float64, 5), make([]float64, 5)}, Bias: []float64{1, 0, 0}},
		},
	}
}

func fiveLogs(equipmentID string, base time.Time) []model.UsageLog {
	logs := make([]model.UsageLog, WindowSize)
	for i := range logs {
		logs[i] = logAt(equipmentID, base.AddDate(0, 0, i), float64(i))
	}
	return logs
}

func TestEngine_FusesUnweightedMean(t *testing.T) {
	// Device with exactly five ascending logs; members emit 0.6 and 0.5, so
	// the fused probability is 0.55 and the decision is positive.
	engine := NewEngine(testArtifacts(0.6, 0.5))
	logs := fiveLogs("EQP007", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	results := engine.PredictBatch(logs)
	require.Len(t, results, 1)

	assert.Equal(t, "EQP007", results[0].EquipmentID)
	assert.InDelta(t, 0.55, results[0].ConfidenceScore, 1e-9)
	assert.Equal(t, 1, results[0].MaintenanceNeeded)
}

func TestEngine_ThresholdIsStrict(t *testing.T) {
	// Fused probability lands below the 0.4 threshold: negative decision.
	engine := NewEngine(testArtifacts(0.3, 0.3))
	logs := fiveLogs("EQP001", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	results := engine.PredictBatch(logs)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].MaintenanceNeeded)
	assert.GreaterOrEqual(t, results[0].ConfidenceScore, 0.0)
	assert.LessOrEqual(t, results[0].ConfidenceScore, 1.0)
}

func TestEngine_SkipsShortDevices(t *testing.T) {
	engine := NewEngine(testArtifacts(0.6, 0.5))
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	logs := fiveLogs("EQP007", base)
	// EQP008 has only three logs and must not appear in the batch.
	logs = append(logs, logAt("EQP008", base, 1), logAt("EQP008", base.AddDate(0, 0, 1), 2), logAt("EQP008", base.AddDate(0, 0, 2), 3))

	results := engine.PredictBatch(logs)
	require.Len(t, results, 1)
	assert.Equal(t, "EQP007", results[0].EquipmentID)
}

func TestEngine_EmptyBatch(t *testing.T) {
	engine := NewEngine(testArtifacts(0.6, 0.5))
	assert.Empty(t, engine.PredictBatch(nil))
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(testArtifacts(0.72, 0.31))
	logs := fiveLogs("EQP009", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	first := engine.PredictBatch(logs)
	second := engine.PredictBatch(logs)
	assert.Equal(t, first, second)
}

func TestSequenceModel_UsesRecurrence(t *testing.T) {
	// A non-trivial network must react to the input sequence.
	m := &SequenceModel{
		InputWeights:  [][]float64{{0.5, 0, 0, 0, 0}},
		HiddenWeights: [][]float64{{0.25}},
		HiddenBias:    []float64{0},
		OutputWeights: []float64{1},
		OutputBias:    0,
	}

	low := m.Predict([][]float64{{0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}})
	high := m.Predict([][]float64{{2, 0, 0, 0, 0}, {2, 0, 0, 0, 0}})
	assert.Greater(t, high, low)
	assert.InDelta(t, 0.5, low, 1e-9)
}
