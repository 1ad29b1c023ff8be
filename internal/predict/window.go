package predict

import (
	"sort"

	"equipment-maintenance-backend/internal/model"
)

// WindowSize is the fixed number of log rows fed to the sequence model.
const WindowSize = 5

// NumFeatures is the per-row feature dimension.
const NumFeatures = 5

// BuildWindow selects the WindowSize most recent logs by timestamp and
// returns their feature rows ordered oldest to newest. Devices with fewer
// than WindowSize logs produce no window and ok is false.
func BuildWindow(logs []model.UsageLog) (window [][]float64, ok bool) {
	if len(logs) < WindowSize {
		return nil, false
	}

	sorted := make([]model.UsageLog, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	recent := sorted[len(sorted)-WindowSize:]
	window = make([][]float64, WindowSize)
	for i, l := range recent {
		window[i] = l.Features()
	}
	return window, true
}

// Flatten concatenates the window rows into a single vector for the
// tabular model.
func Flatten(window [][]float64) []float64 {
	flat := make([]float64, 0, len(window)*NumFeatures)
	for _, row := range window {
		flat = append(flat, row...)
	}
	return flat
}
