package calendar

import (
	"time"

	"calendar_server_go/apperrors"
)

// View - состояние экрана календаря: отображаемый месяц и выбранная дата.
// Значение неизменяемое: переходы возвращают новый View.
//
// Смена месяца сбрасывает выбор, выбрать можно только день
// отображаемого месяца.
type View struct {
	month    time.Time
	selected *time.Time
}

// NewView открывает месяц, в котором лежит t.
func NewView(t time.Time) View {
	return View{month: FirstOfMonth(t)}
}

// Month возвращает первый день отображаемого месяца.
func (v View) Month() time.Time {
	return v.month
}

// Days возвращает дни отображаемого месяца.
func (v View) Days() []time.Time {
	return DaysInMonth(v.month.Year(), v.month.Month())
}

// Selected возвращает выбранную дату.
func (v View) Selected() (time.Time, bool) {
	if v.selected == nil {
		return time.Time{}, false
	}
	return *v.selected, true
}

// SelectedDisplay возвращает выбранную дату в формате события или "".
func (v View) SelectedDisplay() string {
	if v.selected == nil {
		return ""
	}
	return FormatDisplayDate(*v.selected)
}

// Next переходит к следующему месяцу.
func (v View) Next() View {
	return View{month: NextMonth(v.month)}
}

// Prev переходит к предыдущему месяцу.
func (v View) Prev() View {
	return View{month: PreviousMonth(v.month)}
}

// Select выбирает день. День вне отображаемого месяца - ValidationError.
func (v View) Select(day time.Time) (View, error) {
	if day.Year() != v.month.Year() || day.Month() != v.month.Month() {
		return v, apperrors.Validation("calendar.Select", "selected date is outside the displayed month")
	}
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, v.month.Location())
	v.selected = &d
	return v, nil
}

// SelectDay выбирает день по номеру в отображаемом месяце.
func (v View) SelectDay(day int) (View, error) {
	return v.Select(time.Date(v.month.Year(), v.month.Month(), day, 0, 0, 0, 0, v.month.Location()))
}

// ClearSelection снимает выбор.
func (v View) ClearSelection() View {
	v.selected = nil
	return v
}
