package domain

import "time"

// DateLayout - формат дат в API и в логах
const DateLayout = "2006-01-02"

// DateOf отбрасывает время суток и приводит дату к UTC полуночи.
// Все даты в хранилищах нормализуются этой функцией.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today возвращает календарную дату момента now в часовом поясе loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return DateOf(now)
}

// FirstOfMonth возвращает первое число месяца даты d
func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// LastOfMonth возвращает последнее число месяца даты d
func LastOfMonth(d time.Time) time.Time {
	return FirstOfMonth(d).AddDate(0, 1, -1)
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate - обратная операция к ParseDate
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween перечисляет даты от from до to включительно
func DaysBetween(from, to time.Time) []time.Time {
	from, to = DateOf(from), DateOf(to)
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Clock задаёт текущий момент и часовой пояс, в котором определяется "сегодня"
type Clock struct {
	NowFunc  func() time.Time
	Location *time.Location
}

// Now возвращает текущий момент в UTC
func (c Clock) Now() time.Time {
	if c.NowFunc == nil {
		return time.Now().UTC()
	}
	return c.NowFunc().UTC()
}

// Today возвращает сегодняшнюю дату
func (c Clock) Today() time.Time {
	if c.NowFunc == nil {
		return Today(time.Now(), c.Location)
	}
	return Today(c.NowFunc(), c.Location)
}
