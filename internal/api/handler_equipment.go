package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-maintenance-backend/internal/model"
	"equipment-maintenance-backend/internal/store"
)

// GetEquipmentMetrics handles GET /api/equipment/:equipment_id/metrics: the
// device's cumulative usage picture plus its latest risk summary.
func (h *Handler) GetEquipmentMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	equipmentID := c.Param("equipment_id")

	summary, err := h.store.UsageSummary(ctx, equipmentID)
	if err != nil {
		abortForError(c, err)
		return
	}

	riskScore := 0.0
	if pred, err := h.store.GetFailurePrediction(ctx, equipmentID); err == nil {
		riskScore = pred.FailureProbability
	} else if !errors.Is(err, store.ErrNotFound) {
		abortForError(c, err)
		return
	}

	criticality := model.PriorityMedium
	if assessment, err := h.store.GetPriorityAssessment(ctx, equipmentID); err == nil {
		criticality = assessment.Corrective
	} else if !errors.Is(err, store.ErrNotFound) {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"equipment_id": equipmentID,
		"usage_hours":  summary.UsageHours,
		"avg_cpu_temp": summary.AvgCPUTemp,
		"total_errors": summary.TotalErrors,
		"risk_score":   riskScore,
		"criticality":  criticality,
	})
}
