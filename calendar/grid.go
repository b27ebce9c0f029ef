package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Week - строка сетки из семи ячеек; пустые ячейки - нулевое время.
type Week [7]time.Time

// Weeks раскладывает месяц по неделям, начиная с weekStart. Ячейки до
// первого и после последнего дня месяца остаются пустыми.
func Weeks(year int, month time.Month, weekStart time.Weekday) []Week {
	days := DaysInMonth(year, month)
	lead := (int(days[0].Weekday()) - int(weekStart) + 7) % 7

	var weeks []Week
	var w Week
	col := lead
	for _, d := range days {
		w[col] = d
		col++
		if col == 7 {
			weeks = append(weeks, w)
			w = Week{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, w)
	}
	return weeks
}

// WeekdayHeaders возвращает двухбуквенные названия дней начиная с weekStart.
func WeekdayHeaders(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := 0; i < 7; i++ {
		out[i] = (time.Weekday((int(weekStart) + i) % 7)).String()[:2]
	}
	return out
}

const cellWidth = 4

// Render рисует месяц текстовой сеткой. Выбранный день выделяется
// скобками, сегодняшний - звездочкой. Выравнивание идет по ширине
// отображения, поэтому заголовок с широкими символами не сдвигает сетку.
func Render(v View, weekStart time.Weekday, today time.Time) string {
	var b strings.Builder
	width := cellWidth * 7

	title := fmt.Sprintf("%s %d", v.month.Month(), v.month.Year())
	pad := (width - runewidth.StringWidth(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.TrimRight(strings.Repeat(" ", pad)+title, " "))
	b.WriteByte('\n')

	var header strings.Builder
	for _, h := range WeekdayHeaders(weekStart) {
		header.WriteString(runewidth.FillLeft(h, cellWidth-1))
		header.WriteByte(' ')
	}
	b.WriteString(strings.TrimRight(header.String(), " "))
	b.WriteByte('\n')

	selected, hasSelection := v.Selected()
	for _, w := range Weeks(v.month.Year(), v.month.Month(), weekStart) {
		var line strings.Builder
		for _, d := range w {
			line.WriteString(renderCell(d, hasSelection && !d.IsZero() && sameDay(d, selected), !d.IsZero() && sameDay(d, today)))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderCell(d time.Time, selected, today bool) string {
	if d.IsZero() {
		return strings.Repeat(" ", cellWidth)
	}
	switch {
	case selected:
		return fmt.Sprintf("[%2d]", d.Day())
	case today:
		return fmt.Sprintf(" %2d*", d.Day())
	default:
		return fmt.Sprintf(" %2d ", d.Day())
	}
}
