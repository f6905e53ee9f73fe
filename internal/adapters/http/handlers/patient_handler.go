package handlers

import (
	"errors"
	"strings"

	"citycare-queue/internal/adapters/persistence/repositories"
	"citycare-queue/internal/core/domain"
	"citycare-queue/internal/core/services"
	"citycare-queue/internal/pkg/pagination"
	"citycare-queue/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PatientHandler handles patient registration and tracking endpoints
type PatientHandler struct {
	dispatchService *services.DispatchService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(dispatchService *services.DispatchService) *PatientHandler {
	return &PatientHandler{dispatchService: dispatchService}
}

// RegisterPatientRequest represents walk-in registration request body
type RegisterPatientRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	Urgency    string `json:"urgency"`
	Department string `json:"department"`
	Symptoms   string `json:"symptoms"`
	VisitType  string `json:"visit_type"`
}

// Register handles walk-in patient registration (public kiosk)
// @Summary Register walk-in patient
// @Description Admit a walk-in patient and assign a queue token
// @Tags Patients
// @Accept json
// @Produce json
// @Param body body RegisterPatientRequest true "Patient data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /patients/register [post]
func (h *PatientHandler) Register(c *fiber.Ctx) error {
	var req RegisterPatientRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.RegisterInput{
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Age:        req.Age,
		Gender:     strings.ToLower(strings.TrimSpace(req.Gender)),
		Urgency:    strings.ToLower(strings.TrimSpace(req.Urgency)),
		Department: strings.ToLower(strings.TrimSpace(req.Department)),
		Symptoms:   strings.TrimSpace(req.Symptoms),
		VisitType:  strings.ToLower(strings.TrimSpace(req.VisitType)),
	}

	patient, err := h.dispatchService.Admit(input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidUrgency):
			return response.UnprocessableEntity(c, "Invalid urgency level")
		case errors.Is(err, domain.ErrValidation):
			return response.UnprocessableEntity(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to register patient")
		}
	}

	return response.Created(c, "Patient registered successfully", fiber.Map{
		"patient":            patient,
		"token":              patient.Token,
		"position":           patient.Position,
		"estimated_wait_min": patient.EstimatedWaitMin,
	})
}

// Track handles public queue position lookup by token
// @Summary Track queue token
// @Description Look up a patient's queue status by token (public)
// @Tags Patients
// @Produce json
// @Param token path string true "Queue token"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/track/{token} [get]
func (h *PatientHandler) Track(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return response.BadRequest(c, "Token is required")
	}

	status, err := h.dispatchService.TrackByToken(token)
	if err != nil {
		return response.NotFound(c, "Token not found")
	}

	return response.Success(c, "Queue status retrieved", status)
}

// GetByID returns one patient record (staff)
// @Summary Get patient by ID
// @Description Get a single patient record
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patients/{id} [get]
func (h *PatientHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	patient, err := h.dispatchService.GetPatientByID(id)
	if err != nil {
		return response.NotFound(c, "Patient not found")
	}

	return response.Success(c, "Patient retrieved", patient)
}

// List returns the staff-facing patient listing with filters and pagination
// @Summary List patients
// @Description List patients with optional department/status/urgency filters
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department filter"
// @Param status query string false "Status filter"
// @Param urgency query string false "Urgency filter"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /patients [get]
func (h *PatientHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.PatientFilter{
		Department: strings.ToLower(c.Query("department")),
		Status:     strings.ToLower(c.Query("status")),
		Urgency:    strings.ToLower(c.Query("urgency")),
	}

	patients, total, err := h.dispatchService.ListPatients(filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list patients")
	}

	return response.Success(c, "Patients retrieved", pagination.Response{
		Data: patients,
		Meta: pagination.GetMeta(params, total),
	})
}
