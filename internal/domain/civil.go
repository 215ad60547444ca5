package domain

import "time"

// CivilLayout — формат меток времени действий. Лексикографический порядок совпадает с хронологическим.
const CivilLayout = "2006-01-02 15:04:05"

// DayLayout — формат календарного дня.
const DayLayout = "2006-01-02"

// FormatCivil переводит момент в локальное гражданское время зоны loc.
func FormatCivil(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(CivilLayout)
}

// CivilDay возвращает день в формате DayLayout для зоны loc.
func CivilDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// DayRange возвращает границы [day 00:00:00, day 23:59:59].
func DayRange(day string) (string, string) {
	return day + " 00:00:00", day + " 23:59:59"
}

// WindowRange возвращает границы окна из days календарных дней, оканчивающегося днём day.
// При days <= 1 окно совпадает с самим днём.
func WindowRange(day string, days int) (string, string, error) {
	end, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", "", err
	}
	if days < 1 {
		days = 1
	}
	start := end.AddDate(0, 0, -(days - 1))
	from, _ := DayRange(start.Format(DayLayout))
	_, to := DayRange(day)
	return from, to, nil
}
