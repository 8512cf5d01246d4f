package service

import (
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/repository"
)

// Deps - общие зависимости сервисов
type Deps struct {
	Repos  *repository.Repositories
	Clock  domain.Clock
	Events events.Publisher
	Log    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

func parseDate(field, value string) (time.Time, error) {
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, errors.Wrapf(domain.ErrInvalidInput, "%s: %q is not a YYYY-MM-DD date", field, value)
	}
	return d, nil
}

func page(number, size int) repository.Page {
	if size <= 0 {
		size = 50
	}
	if number <= 0 {
		number = 1
	}
	return repository.Page{Limit: size, Offset: (number - 1) * size}
}

func datesOf(rows []domain.Attendance) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out
}
