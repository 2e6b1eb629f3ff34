package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medrecords/records-api/internal/core/ports"
)

type PatientRecordHandler struct {
	records ports.PatientRecordService
}

func NewPatientRecordHandler(records ports.PatientRecordService) *PatientRecordHandler {
	return &PatientRecordHandler{records: records}
}

// Admit handles POST /v1/patient-records.
//
// @Summary      Admit a patient
// @Tags         patient-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      admitRequest  true  "Admission"
// @Success      201   {object}  domain.PatientRecord
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/patient-records [post]
func (h *PatientRecordHandler) Admit(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rec, err := h.records.Admit(c.Request().Context(), ports.AdmitInput{
		Name:      req.Name,
		Age:       req.Age,
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

// Get handles GET /v1/patient-records/:id.
//
// @Summary      Get a patient record
// @Tags         patient-records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  domain.PatientRecord
// @Failure      404  {object}  errorResponse
// @Router       /v1/patient-records/{id} [get]
func (h *PatientRecordHandler) Get(c echo.Context) error {
	rec, err := h.records.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// List handles GET /v1/patient-records?page=&limit=.
//
// @Summary      List patient records, newest admission first
// @Tags         patient-records
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  patientRecordListResponse
// @Failure      400    {object}  errorResponse
// @Router       /v1/patient-records [get]
func (h *PatientRecordHandler) List(c echo.Context) error {
	page, err := intQuery(c, "page")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	res, err := h.records.List(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, patientRecordListResponse{
		Data:       res.Items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// intQuery returns 0 for an absent parameter.
func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return n, nil
}
