package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-maintenance-backend/internal/mw"
)

// GetMaintenancePriority handles GET /api/maintenance/priority/:equipment_id.
// It aggregates the device's history, runs the three priority classifiers
// and upserts the assessment.
func (h *Handler) GetMaintenancePriority(c *gin.Context) {
	equipmentID := c.Param("equipment_id")

	assessment, err := h.svc.AssessPriority(c.Request.Context(), equipmentID)
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"equipment_id":      assessment.EquipmentID,
		"predicted_to_fail": assessment.PredictedToFail,
		"maintenance_needs": gin.H{
			"preventive":  assessment.Preventive,
			"corrective":  assessment.Corrective,
			"replacement": assessment.Replacement,
		},
	})
}

// GetHealthStatus handles GET /api/maintenance/health-status. Devices whose
// evaluation fails are dropped from the response by design.
func (h *Handler) GetHealthStatus(c *gin.Context) {
	results, err := h.svc.HealthStatus(c.Request.Context(), mw.RoleFrom(c))
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"health_status": results})
}
