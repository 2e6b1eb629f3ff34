package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrecords/records-api/internal/core/domain"
	"github.com/medrecords/records-api/internal/core/ports"
)

type PrescriptionHandler struct {
	prescriptions ports.PrescriptionService
	maxBytes      int64
}

func NewPrescriptionHandler(prescriptions ports.PrescriptionService, maxBytes int64) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptions: prescriptions, maxBytes: maxBytes}
}

// File handles POST /v1/prescriptions. The calling doctor becomes the issuer.
//
// @Summary      File a prescription image for a patient
// @Tags         prescriptions
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        patient_id  formData  string  true  "Patient account ID"
// @Param        image       formData  file    true  "Prescription image"
// @Success      201         {object}  domain.Prescription
// @Failure      400         {object}  errorResponse
// @Failure      403         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Failure      413         {object}  errorResponse
// @Failure      415         {object}  errorResponse
// @Router       /v1/prescriptions [post]
func (h *PrescriptionHandler) File(c echo.Context) error {
	doctorID, _, err := currentAccount(c)
	if err != nil {
		return err
	}

	patientID := c.FormValue("patient_id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	image, filename, err := readUpload(c, "image", h.maxBytes)
	if errors.Is(err, errMissingFile) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: noImageMessage})
	}
	if err != nil {
		return err
	}

	p, err := h.prescriptions.File(c.Request().Context(), ports.FileInput{
		PatientID: patientID,
		DoctorID:  doctorID,
		Filename:  filename,
		Image:     image,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/prescriptions: issued ones for doctors, received ones
// for patients.
//
// @Summary      List the caller's prescriptions
// @Tags         prescriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  prescriptionListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/prescriptions [get]
func (h *PrescriptionHandler) List(c echo.Context) error {
	id, role, err := currentAccount(c)
	if err != nil {
		return err
	}

	items, err := h.prescriptions.ListForAccount(c.Request().Context(), id, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prescriptionListResponse{Data: items})
}

// Get handles GET /v1/prescriptions/:id for the issuing doctor or the patient.
//
// @Summary      Get a prescription
// @Tags         prescriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Prescription ID"
// @Success      200  {object}  domain.Prescription
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/prescriptions/{id} [get]
func (h *PrescriptionHandler) Get(c echo.Context) error {
	id, _, err := currentAccount(c)
	if err != nil {
		return err
	}

	p, err := h.prescriptions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if !p.VisibleTo(id) {
		return domain.ErrForbidden
	}
	return c.JSON(http.StatusOK, p)
}

// Process handles POST /v1/prescriptions/:id/process.
//
// @Summary      Re-run extraction and summary
// @Tags         prescriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Prescription ID"
// @Success      202  {object}  acceptedResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/prescriptions/{id}/process [post]
func (h *PrescriptionHandler) Process(c echo.Context) error {
	doctorID, _, err := currentAccount(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	p, err := h.prescriptions.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if p.DoctorID != doctorID {
		return domain.ErrForbidden
	}

	if err := h.prescriptions.Reprocess(ctx, p.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "prescription queued", ID: p.ID})
}
