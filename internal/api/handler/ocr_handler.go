package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrecords/records-api/internal/core/ports"
	"github.com/medrecords/records-api/internal/pkg/metrics"
)

const noImageMessage = "No image provided"

// OCRHandler serves the stateless text extraction endpoint.
type OCRHandler struct {
	extractor ports.TextExtractor
	maxBytes  int64
}

func NewOCRHandler(extractor ports.TextExtractor, maxBytes int64) *OCRHandler {
	return &OCRHandler{extractor: extractor, maxBytes: maxBytes}
}

// Extract handles POST /ocr.
//
// @Summary      Extract text from an image
// @Tags         ocr
// @Accept       multipart/form-data
// @Produce      json
// @Param        image  formData  file  true  "Prescription image"
// @Success      200    {object}  ocrResponse
// @Failure      400    {object}  errorResponse
// @Failure      413    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Failure      502    {object}  errorResponse
// @Router       /ocr [post]
func (h *OCRHandler) Extract(c echo.Context) error {
	image, _, err := readUpload(c, "image", h.maxBytes)
	if errors.Is(err, errMissingFile) {
		metrics.OCRRequestsTotal.WithLabelValues("no_image").Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: noImageMessage})
	}
	if err != nil {
		return err
	}

	text, err := h.extractor.ExtractText(c.Request().Context(), image)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ocrResponse{ExtractedText: text})
}
