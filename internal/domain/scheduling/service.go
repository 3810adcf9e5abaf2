package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

// Service exposes the scheduling operation.
type Service interface {
	Schedule(ctx context.Context, req Request) (BookingResult, error)
}

// CalendarClient is the external calendar capability. ListEvents must
// return the current busy intervals on every call; results are never
// cached so slot computation always sees fresh data.
type CalendarClient interface {
	ListEvents(ctx context.Context) ([]CalendarEvent, error)
	Book(ctx context.Context, details BookingDetails) error
}

type service struct {
	client CalendarClient
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires up the scheduler.
func NewService(client CalendarClient, logger *slog.Logger) Service {
	return &service{
		client: client,
		logger: logger.With("component", "scheduling.service"),
		now:    time.Now,
	}
}

func (s *service) Schedule(ctx context.Context, req Request) (BookingResult, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return BookingResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "subject cannot be empty", nil)
	}

	// A missing credential or transport failure propagates; only the
	// booking step below converts errors into a result.
	events, err := s.client.ListEvents(ctx)
	if err != nil {
		return BookingResult{}, err
	}

	slot := FindSlot(events, s.now())
	s.logger.Info("slot computed", "subject", subject, "start", slot.Start, "busy_events", len(events))

	details := BookingDetails{
		Subject:     subject,
		Description: strings.TrimSpace(req.Description),
		Start:       slot.Start,
		End:         slot.End,
	}
	if err := s.client.Book(ctx, details); err != nil {
		s.logger.Warn("booking failed", "subject", subject, "error", err)
		return BookingResult{Success: false, Message: normalizeDetail(err)}, nil
	}

	start := slot.Start
	return BookingResult{
		Success:       true,
		Message:       fmt.Sprintf("%s has been scheduled for %s", subject, start.Format("January 2, 2006 at 3:04 PM")),
		ScheduledTime: &start,
	}, nil
}

func normalizeDetail(err error) string {
	detail := strings.TrimSpace(err.Error())
	if detail == "" {
		return "booking failed for an unknown reason"
	}
	return detail
}
