package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

var errMissingFile = errors.New("missing file")

// readUpload reads multipart file field into memory, refusing files larger
// than maxBytes with 413. Only a missing field or a non-multipart body yields
// errMissingFile; other parse failures are reported with their cause.
func readUpload(c echo.Context, field string, maxBytes int64) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", errMissingFile
		}
		// BodyLimit aborts the read with its own 413.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, "", he
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
		}
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid multipart body: %v", err))
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("image exceeds %d bytes", maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return data, fh.Filename, nil
}
