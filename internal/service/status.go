// Package service orchestrates status resolution end to end.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"visa-status-service/internal/common/errors"
	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/common/metrics"
	"visa-status-service/internal/ingest"
	"visa-status-service/internal/models"
	"visa-status-service/internal/notify"
	"visa-status-service/internal/ratelimit"
	"visa-status-service/internal/workdays"
)

const dateLayout = "2006-01-02"

// Dispatcher is the notification collaborator.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient, subject, body string) models.NotificationOutcome
}

// StatusService resolves one status-check request: admission control,
// validation, index lookup, working-day computation, notification
// dispatch, response assembly — in that order, terminal on the first
// failing step. All collaborators are injected; the record index is an
// immutable snapshot owned by the store.
type StatusService struct {
	store      *ingest.Store
	limiter    ratelimit.Limiter
	dispatcher Dispatcher
	cache      *ResponseCache // nil disables response caching
	logger     logger.Logger
	now        func() time.Time
}

func NewStatusService(store *ingest.Store, limiter ratelimit.Limiter, dispatcher Dispatcher, cache *ResponseCache, log logger.Logger) *StatusService {
	return &StatusService{
		store:      store,
		limiter:    limiter,
		dispatcher: dispatcher,
		cache:      cache,
		logger:     log.WithFields(map[string]interface{}{"component": "status-service"}),
		now:        time.Now,
	}
}

// CheckStatus handles one request for clientKey. It returns a
// StandardError only for admission rejections, invalid input and
// unexpected faults; a missing record and a failed notification are
// reported as data in the response.
//
// Unknown application numbers resolve to Pending and still trigger a
// notification, so an applicant whose decision has not been recorded
// yet gets the same informational email as one with a pending row.
func (s *StatusService) CheckStatus(ctx context.Context, clientKey string, req models.StatusRequest) (*models.StatusResponse, error) {
	if !s.limiter.Allow(ctx, clientKey, ratelimit.EndpointCheckStatus) {
		metrics.RequestsRejected.WithLabelValues(ratelimit.EndpointCheckStatus, "rate_limited").Inc()
		return nil, errors.NewRateLimitError(ratelimit.EndpointCheckStatus)
	}

	appDate, err := s.validate(req)
	if err != nil {
		metrics.RequestsRejected.WithLabelValues(ratelimit.EndpointCheckStatus, "validation").Inc()
		return nil, err
	}

	number := ingest.NormalizeNumber(req.ApplicationNumber)
	cacheKey := fmt.Sprintf("status:%s:%s:%s", number, req.ApplicationDate, req.Email)

	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, cacheKey); ok {
			return resp, nil
		}
	}

	status := models.StatusPending
	if rec, found := s.store.Snapshot().Lookup(number); found {
		status = rec.Status
	}

	// The caller-supplied date is authoritative for elapsed time, so a
	// caller can probe latency even without a stored record.
	days := workdays.Between(appDate, s.now())

	subject, body := notify.ComposeStatusMessage(status, days)
	outcome := s.dispatcher.Dispatch(ctx, req.Email, subject, body)

	resp := &models.StatusResponse{
		Status:      string(status),
		WorkingDays: days,
		EmailSent:   outcome.Delivered,
		EmailError:  outcome.FailureReason,
	}
	if outcome.Delivered {
		resp.Message = fmt.Sprintf("An email has been sent to %s with more information.", req.Email)
	} else {
		resp.Message = "Your status was resolved, but the notification email could not be delivered."
	}

	metrics.StatusChecksTotal.WithLabelValues(resp.Status).Inc()

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, resp)
	}

	return resp, nil
}

// validate checks the three required fields and parses the date. The
// error enumerates every missing field, not just the first.
func (s *StatusService) validate(req models.StatusRequest) (time.Time, error) {
	var missing []string
	if strings.TrimSpace(req.ApplicationNumber) == "" {
		missing = append(missing, "application_number")
	}
	if strings.TrimSpace(req.ApplicationDate) == "" {
		missing = append(missing, "application_date")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return time.Time{}, errors.NewValidationError("missing fields: " + strings.Join(missing, ", "))
	}

	appDate, err := time.Parse(dateLayout, strings.TrimSpace(req.ApplicationDate))
	if err != nil {
		return time.Time{}, errors.NewValidationError("application_date must be formatted as YYYY-MM-DD")
	}

	return appDate, nil
}
