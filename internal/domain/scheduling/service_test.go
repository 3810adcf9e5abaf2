package scheduling

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/wanderwise/pkg/errors"
)

func TestScheduleSuccess(t *testing.T) {
	stub := &stubCalendarClient{
		events: []CalendarEvent{
			busy(at(0, 9, 0), at(0, 10, 0)),
			busy(at(0, 14, 0), at(0, 15, 0)),
		},
	}
	svc := newTestService(stub, at(0, 8, 0))

	result, err := svc.Schedule(context.Background(), Request{Subject: "Museum of Modern Art", Description: "Quiet afternoon"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.ScheduledTime)
	require.Equal(t, at(0, 10, 0), *result.ScheduledTime)
	require.Contains(t, result.Message, "Museum of Modern Art")

	require.Equal(t, 1, stub.listCalls)
	require.Equal(t, "Museum of Modern Art", stub.booked.Subject)
	require.Equal(t, at(0, 10, 0), stub.booked.Start)
	require.Equal(t, at(0, 11, 0), stub.booked.End)
}

func TestScheduleConfigErrorPropagates(t *testing.T) {
	stub := &stubCalendarClient{
		listErr: apperrors.Wrap(apperrors.CodeConfig, "calendly api key is not configured", nil),
	}
	svc := newTestService(stub, at(0, 8, 0))

	_, err := svc.Schedule(context.Background(), Request{Subject: "Park"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfig))
	require.Zero(t, stub.bookCalls)
}

func TestScheduleBookingFailureBecomesResult(t *testing.T) {
	stub := &stubCalendarClient{
		bookErr: errors.New("calendly booking error: status=422 body=slot taken"),
	}
	svc := newTestService(stub, at(0, 8, 0))

	result, err := svc.Schedule(context.Background(), Request{Subject: "Park"})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "slot taken")
	require.Nil(t, result.ScheduledTime)
}

func TestScheduleEmptySubject(t *testing.T) {
	stub := &stubCalendarClient{}
	svc := newTestService(stub, at(0, 8, 0))

	_, err := svc.Schedule(context.Background(), Request{Subject: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, stub.listCalls)
}

func newTestService(client CalendarClient, now time.Time) Service {
	return &service{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return now },
	}
}

type stubCalendarClient struct {
	events    []CalendarEvent
	listErr   error
	bookErr   error
	listCalls int
	bookCalls int
	booked    BookingDetails
}

func (s *stubCalendarClient) ListEvents(ctx context.Context) ([]CalendarEvent, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.events, nil
}

func (s *stubCalendarClient) Book(ctx context.Context, details BookingDetails) error {
	s.bookCalls++
	s.booked = details
	return s.bookErr
}
