package handlers

import (
	"errors"
	"strings"

	"citycare-queue/internal/core/domain"
	"citycare-queue/internal/core/services"
	"citycare-queue/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// QueueHandler handles the staff dispatch endpoints
type QueueHandler struct {
	dispatchService *services.DispatchService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(dispatchService *services.DispatchService) *QueueHandler {
	return &QueueHandler{dispatchService: dispatchService}
}

// RetriageRequest represents an urgency change request body
type RetriageRequest struct {
	Urgency string `json:"urgency"`
}

// QueueStateRequest represents a queue state change request body
type QueueStateRequest struct {
	State string `json:"state"`
}

// GetQueue returns the ordered waiting list for a department
// @Summary Get department queue
// @Description Get the ordered waiting list and counters for one department
// @Tags Queue
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Success 200 {object} response.Response
// @Router /queue/{department} [get]
func (h *QueueHandler) GetQueue(c *fiber.Ctx) error {
	department := strings.ToLower(c.Params("department"))

	snapshot, err := h.dispatchService.GetQueueSnapshot(department)
	if err != nil {
		return response.InternalServerError(c, "Failed to get queue")
	}

	return response.Success(c, "Queue retrieved", snapshot)
}

// CallNext dispatches the next patient of a department
// @Summary Call next patient
// @Description Dispatch the highest-priority waiting patient to the counter
// @Tags Queue
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /queue/{department}/call-next [post]
func (h *QueueHandler) CallNext(c *fiber.Ctx) error {
	department := strings.ToLower(c.Params("department"))

	patient, err := h.dispatchService.CallNext(department)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyQueue):
			return response.NotFound(c, "No patients waiting")
		case errors.Is(err, domain.ErrAlreadyDispatched):
			return response.Conflict(c, "A patient is already in progress, complete or skip first")
		case errors.Is(err, domain.ErrQueueNotActive):
			return response.Conflict(c, "Queue is not active")
		default:
			return response.InternalServerError(c, "Failed to call next patient")
		}
	}

	return response.Success(c, "Patient called", patient)
}

// Complete finishes the in-progress patient
// @Summary Complete consultation
// @Description Mark the in-progress patient as completed
// @Tags Queue
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /queue/complete/{id} [post]
func (h *QueueHandler) Complete(c *fiber.Ctx) error {
	id := c.Params("id")

	patient, err := h.dispatchService.Complete(id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPatientNotFound):
			return response.NotFound(c, "Patient not found")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Patient is not in progress")
		default:
			return response.InternalServerError(c, "Failed to complete patient")
		}
	}

	return response.Success(c, "Patient completed", patient)
}

// Skip marks a waiting patient as a no-show
// @Summary Skip patient
// @Description Mark a waiting patient as skipped and remove from the queue
// @Tags Queue
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /queue/skip/{id} [post]
func (h *QueueHandler) Skip(c *fiber.Ctx) error {
	id := c.Params("id")

	patient, err := h.dispatchService.Skip(id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPatientNotFound):
			return response.NotFound(c, "Patient not found")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Patient is not waiting")
		default:
			return response.InternalServerError(c, "Failed to skip patient")
		}
	}

	return response.Success(c, "Patient skipped", patient)
}

// Retriage changes a waiting patient's urgency
// @Summary Re-triage patient
// @Description Change the urgency class of a waiting patient
// @Tags Queue
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param body body RetriageRequest true "New urgency"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /queue/retriage/{id} [post]
func (h *QueueHandler) Retriage(c *fiber.Ctx) error {
	id := c.Params("id")

	var req RetriageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	patient, err := h.dispatchService.Retriage(id, strings.ToLower(strings.TrimSpace(req.Urgency)))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidUrgency):
			return response.UnprocessableEntity(c, "Invalid urgency level")
		case errors.Is(err, domain.ErrPatientNotFound):
			return response.NotFound(c, "Patient not found")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Patient is not waiting")
		default:
			return response.InternalServerError(c, "Failed to re-triage patient")
		}
	}

	return response.Success(c, "Patient re-triaged", patient)
}

// SetState pauses, resumes or closes a department queue
// @Summary Set queue state
// @Description Change a department queue to active, paused or closed
// @Tags Queue
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param department path string true "Department"
// @Param body body QueueStateRequest true "New state"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /queue/{department}/state [patch]
func (h *QueueHandler) SetState(c *fiber.Ctx) error {
	department := strings.ToLower(c.Params("department"))

	var req QueueStateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.dispatchService.SetQueueState(department, strings.ToLower(strings.TrimSpace(req.State))); err != nil {
		if errors.Is(err, domain.ErrInvalidQueueState) {
			return response.UnprocessableEntity(c, "State must be active, paused or closed")
		}
		return response.InternalServerError(c, "Failed to set queue state")
	}

	return response.Success(c, "Queue state updated", fiber.Map{
		"department": department,
		"state":      strings.ToLower(strings.TrimSpace(req.State)),
	})
}
