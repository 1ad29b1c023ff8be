package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunPredictions handles POST /api/predict: it runs the batch ensemble
// pipeline over every device's recent logs and persists the verdicts.
func (h *Handler) RunPredictions(c *gin.Context) {
	results, err := h.svc.PredictAll(c.Request.Context())
	if err != nil {
		abortForError(c, err)
		return
	}

	// No device reached window length; reported distinctly from an error.
	if len(results) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Not enough data for any equipment."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": results})
}
