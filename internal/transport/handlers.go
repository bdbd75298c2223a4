package transport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"visa-status-service/internal/common/errors"
	"visa-status-service/internal/common/metrics"
	"visa-status-service/internal/common/validation"
	"visa-status-service/internal/models"
	"visa-status-service/internal/ratelimit"
)

// CheckStatus resolves an application's status from form fields and
// reports it together with the notification outcome.
func (h *Handler) CheckStatus(c *gin.Context) {
	req := models.StatusRequest{
		ApplicationNumber: c.PostForm("application_number"),
		ApplicationDate:   c.PostForm("application_date"),
		Email:             c.PostForm("email"),
	}
	// Earlier clients submit the number as irl_number.
	if strings.TrimSpace(req.ApplicationNumber) == "" {
		req.ApplicationNumber = c.PostForm("irl_number")
	}

	resp, err := h.status.CheckStatus(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// sendEmailSchema validates the raw dispatch body.
var sendEmailSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"recipient", "subject", "body"},
	Properties: map[string]validation.Property{
		"recipient": {Type: "string", MinLength: intPtr(5), MaxLength: intPtr(255)},
		"subject":   {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(500)},
		"body":      {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(100000)},
	},
}

// SendEmail dispatches an arbitrary message. Admission control runs
// before validation and dispatch, same as the status endpoint.
func (h *Handler) SendEmail(c *gin.Context) {
	if !h.limiter.Allow(c.Request.Context(), c.ClientIP(), ratelimit.EndpointSendEmail) {
		metrics.RequestsRejected.WithLabelValues(ratelimit.EndpointSendEmail, "rate_limited").Inc()
		h.renderError(c, errors.NewRateLimitError(ratelimit.EndpointSendEmail))
		return
	}

	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.renderError(c, errors.NewValidationError("request body must be a JSON object"))
		return
	}

	if result := validation.ValidateInput(raw, sendEmailSchema); !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Request validation failed",
			"fields": result.Errors,
		})
		return
	}

	req := models.SendEmailRequest{
		Recipient: raw["recipient"].(string),
		Subject:   raw["subject"].(string),
		Body:      raw["body"].(string),
	}

	outcome := h.dispatcher.Dispatch(c.Request.Context(), req.Recipient, req.Subject, req.Body)
	resp := models.SendEmailResponse{Success: outcome.Delivered}
	if outcome.Delivered {
		resp.Message = "Email sent successfully"
	} else {
		resp.Message = outcome.FailureReason
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports process liveness and the size of the current index
// snapshot.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "visa-status-service",
		"records": h.store.Snapshot().Len(),
	})
}

func (h *Handler) renderError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed", map[string]interface{}{
			"path": c.FullPath(),
		})
	}

	c.JSON(status, gin.H{
		"error":   stdErr.Message,
		"details": stdErr.Details,
	})
}

func intPtr(i int) *int {
	return &i
}
