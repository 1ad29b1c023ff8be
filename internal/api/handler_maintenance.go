package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"equipment-maintenance-backend/internal/lifecycle"
	"equipment-maintenance-backend/internal/model"
	"equipment-maintenance-backend/internal/mw"
)

// ListTickets handles GET /api/maintenance. Technicians only see their work
// queue, i.e. Scheduled tickets.
func (h *Handler) ListTickets(c *gin.Context) {
	status := ""
	if mw.RoleFrom(c) == lifecycle.RoleTechnician {
		status = model.StatusScheduled
	}

	tickets, err := h.store.ListTickets(c.Request.Context(), status)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": tickets})
}

// ListTicketsByEquipment handles GET /api/maintenance/by-equipment/:equipment_id.
func (h *Handler) ListTicketsByEquipment(c *gin.Context) {
	tickets, err := h.store.ListTicketsByEquipment(c.Request.Context(), c.Param("equipment_id"))
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": tickets})
}

// ListUpcomingTickets handles GET /api/maintenance/upcoming/:equipment_id.
func (h *Handler) ListUpcomingTickets(c *gin.Context) {
	today := time.Now().UTC().Format("2006-01-02")
	tickets, err := h.store.ListUpcomingTickets(c.Request.Context(), c.Param("equipment_id"), today)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upcoming_maintenances": tickets})
}

// ListPendingReviews handles GET /api/maintenance/pending-reviews. Only
// roles holding the review capability may see the queue.
func (h *Handler) ListPendingReviews(c *gin.Context) {
	if !mw.RoleFrom(c).Can(lifecycle.CapReview) {
		abortForError(c, lifecycle.ErrForbidden)
		return
	}

	tickets, err := h.store.ListPendingReviews(c.Request.Context())
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": tickets})
}

// ListNewScheduled handles GET /api/maintenance/new-scheduled, the
// technician's incoming work queue.
func (h *Handler) ListNewScheduled(c *gin.Context) {
	if !mw.RoleFrom(c).Can(lifecycle.CapMarkComplete) {
		abortForError(c, lifecycle.ErrForbidden)
		return
	}

	today := time.Now().UTC().Format("2006-01-02")
	tickets, err := h.store.ListScheduledFrom(c.Request.Context(), today)
	if err != nil {
		abortForError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_scheduled": tickets})
}

type scheduleRequest struct {
	MaintenanceType  string `json:"maintenance_type" binding:"required"`
	Date             string `json:"date" binding:"required"`
	IssueDescription string `json:"issue_description"`
	TechnicianID     string `json:"technician_id"`
}

// ScheduleMaintenance handles PUT /api/maintenance/schedule/:equipment_id.
func (h *Handler) ScheduleMaintenance(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.svc.Schedule(c.Request.Context(), mw.RoleFrom(c), lifecycle.ScheduleRequest{
		EquipmentID:      c.Param("equipment_id"),
		MaintenanceType:  req.MaintenanceType,
		Date:             req.Date,
		IssueDescription: req.IssueDescription,
		TechnicianID:     req.TechnicianID,
	})
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Maintenance " + ticket.MaintenanceID + " scheduled for " + ticket.EquipmentID + " on " + ticket.Date,
		"maintenance_id": ticket.MaintenanceID,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateProgress handles PUT /api/maintenance/update-status/:maintenance_id.
func (h *Handler) UpdateProgress(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maintenanceID := c.Param("maintenance_id")
	if err := h.svc.UpdateProgress(c.Request.Context(), mw.RoleFrom(c), maintenanceID, req.Status); err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Maintenance log " + maintenanceID + " updated to status: " + req.Status})
}

type completionRequest struct {
	DowntimeHours float64 `json:"downtime_hours"`
	Cost          float64 `json:"cost_inr"`
	Remarks       string  `json:"remarks"`
	TechnicianID  string  `json:"technician_id"`
}

// MarkComplete handles PUT /api/maintenance/mark-complete/:maintenance_id.
// The technician ID comes from the caller's token, falling back to the body.
func (h *Handler) MarkComplete(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	technicianID := mw.PersonnelIDFrom(c)
	if technicianID == "" {
		technicianID = req.TechnicianID
	}
	if technicianID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Cannot determine technician ID"})
		return
	}

	err := h.svc.MarkComplete(c.Request.Context(), mw.RoleFrom(c), c.Param("maintenance_id"), lifecycle.Completion{
		DowntimeHours: req.DowntimeHours,
		Cost:          req.Cost,
		TechnicianID:  technicianID,
	})
	if err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Maintenance marked as completed and pending confirmation"})
}

type confirmRequest struct {
	ServiceRating int `json:"service_rating" binding:"required"`
}

// ConfirmCompletion handles PUT /api/maintenance/confirm/:maintenance_id.
func (h *Handler) ConfirmCompletion(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maintenanceID := c.Param("maintenance_id")
	if err := h.svc.Confirm(c.Request.Context(), mw.RoleFrom(c), maintenanceID, req.ServiceRating); err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Maintenance " + maintenanceID + " confirmed"})
}

type reviewRequest struct {
	ServiceRating    int    `json:"service_rating"`
	CompletionStatus string `json:"completion_status" binding:"required"`
}

// ReviewCompletion handles PUT /api/maintenance/review-completion/:maintenance_id.
func (h *Handler) ReviewCompletion(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maintenanceID := c.Param("maintenance_id")
	outcome, err := h.svc.Review(c.Request.Context(), mw.RoleFrom(c), maintenanceID, req.ServiceRating, req.CompletionStatus)
	if err != nil {
		abortForError(c, err)
		return
	}

	message := "Maintenance " + maintenanceID + " returned to technician for additional work"
	if outcome.CompletionStatus == model.CompletionApproved {
		message = "Maintenance " + maintenanceID + " approved and completed successfully"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                   message,
		"updated_status":            outcome.Status,
		"updated_completion_status": outcome.CompletionStatus,
	})
}

// DeleteTicket handles DELETE /api/maintenance/:maintenance_id. Admin only.
func (h *Handler) DeleteTicket(c *gin.Context) {
	maintenanceID := c.Param("maintenance_id")
	if err := h.svc.Delete(c.Request.Context(), mw.RoleFrom(c), maintenanceID); err != nil {
		abortForError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Maintenance log " + maintenanceID + " deleted"})
}
