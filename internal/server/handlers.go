package server

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/verity/internal/verify"
)

// maxContentBytes bounds submitted text; larger payloads are rejected
// before the pipeline runs.
const maxContentBytes = 50_000

// VerifyHandler exposes the verification pipeline over HTTP.
type VerifyHandler struct {
	Pipeline Verifier
}

func (h *VerifyHandler) Register(g *echo.Group) {
	g.POST("/verify", h.VerifyText)
	g.POST("/verify/image", h.VerifyImage)
}

type verifyTextRequest struct {
	Content string `json:"content"`
}

type verifyImageRequest struct {
	Format string `json:"format"`
	Data   string `json:"data"`
}

// VerifyText runs the pipeline on submitted text.
func (h *VerifyHandler) VerifyText(c echo.Context) error {
	var req verifyTextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	if len(content) > maxContentBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "content too large")
	}

	resp, err := h.Pipeline.Verify(c.Request().Context(), verify.Request{Content: content})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// VerifyImage runs the pipeline on a base64-encoded image. Decoding to
// raw bytes happens here; resizing and text extraction are the model's
// concern.
func (h *VerifyHandler) VerifyImage(c echo.Context) error {
	var req verifyImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Data == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "data is required")
	}
	format := req.Format
	if format == "" {
		format = "image/jpeg"
	}
	if !strings.HasPrefix(format, "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be an image MIME type")
	}
	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data is not valid base64")
	}

	resp, err := h.Pipeline.Verify(c.Request().Context(), verify.Request{
		Image: &verify.ImageInput{MIMEType: format, Data: raw},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
