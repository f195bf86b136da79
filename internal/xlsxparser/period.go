package xlsxparser

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var (
	dayToken = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.?`)

	fileNamePeriod    = regexp.MustCompile(`(\d{1,2})_(\d{4})`)
	fileNamePeriodExt = regexp.MustCompile(`(\d{1,2})_(\d{4})\.[xX][lL][sS][xXmM]$`)
)

// excelEpoch is day zero of the spreadsheet serial date system.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// dayLabel returns the first-column text of a data row. Cells stored as
// date serials are rendered as "D.M." so that they match like text labels.
func (s *Sheet) dayLabel(row int) string {
	text := s.Cell(row, 0)
	if serial, err := strconv.Atoi(text); err == nil && serial > 35000 && serial < 60000 {
		d := excelEpoch.AddDate(0, 0, serial)
		return strconv.Itoa(d.Day()) + "." + strconv.Itoa(int(d.Month())) + "."
	}
	return text
}

// FindDayRow returns the index of the first data row whose day label is one
// of "D.M.", "DD.MM." or "D.M".
func (s *Sheet) FindDayRow(day time.Time) (int, error) {
	d, m := day.Day(), int(day.Month())
	candidates := [3]string{
		strconv.Itoa(d) + "." + strconv.Itoa(m) + ".",
		twoDigits(d) + "." + twoDigits(m) + ".",
		strconv.Itoa(d) + "." + strconv.Itoa(m),
	}

	for i := range s.Rows {
		label := s.dayLabel(i)
		for _, c := range candidates {
			if label == c {
				return i, nil
			}
		}
	}
	return -1, &MissingDateRowError{Day: day}
}

// dayMonths returns the (day, month) pairs of every day-like label.
func (s *Sheet) dayMonths() [][2]int {
	var out [][2]int
	for i := range s.Rows {
		m := dayToken.FindStringSubmatch(s.dayLabel(i))
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		out = append(out, [2]int{day, month})
	}
	return out
}

// DetectPeriod guesses the month and year the sheet covers.
//
// DETECTION RULES:
//  1. All day labels share one month: that month, with the year from the
//     file name when derivable, else now's year.
//  2. Labels span several months: the file name's month and year when
//     derivable, else the smallest month with now's year.
//  3. No day labels: the file name's period, if any.
//
// ok is false only when none of the rules yields a month. It never fails.
func (s *Sheet) DetectPeriod(fileName string, now time.Time) (month, year int, ok bool) {
	fileMonth, fileYear, fileOK := PeriodFromFileName(fileName)

	months := make(map[int]bool)
	for _, dm := range s.dayMonths() {
		if dm[1] >= 1 && dm[1] <= 12 {
			months[dm[1]] = true
		}
	}

	switch {
	case len(months) == 1:
		for m := range months {
			month = m
		}
		year = now.Year()
		if fileOK {
			year = fileYear
		}
		return month, year, true

	case len(months) > 1:
		if fileOK {
			return fileMonth, fileYear, true
		}
		month = 13
		for m := range months {
			month = min(month, m)
		}
		return month, now.Year(), true
	}

	if fileOK {
		return fileMonth, fileYear, true
	}
	return 0, 0, false
}

// AvailableDays returns the sorted, unique day numbers labelled with month.
// Days that do not exist in that month of year are dropped.
func (s *Sheet) AvailableDays(month, year int) []int {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()

	seen := make(map[int]bool)
	var days []int
	for _, dm := range s.dayMonths() {
		if dm[1] != month || dm[0] < 1 || dm[0] > last || seen[dm[0]] {
			continue
		}
		seen[dm[0]] = true
		days = append(days, dm[0])
	}
	sort.Ints(days)
	return days
}

// PeriodFromFileName extracts "M_YYYY" from a file name, preferring a match
// directly before the workbook extension.
func PeriodFromFileName(fileName string) (month, year int, ok bool) {
	base := filepath.Base(fileName)

	m := fileNamePeriodExt.FindStringSubmatch(base)
	if m == nil {
		m = fileNamePeriod.FindStringSubmatch(base)
	}
	if m == nil {
		return 0, 0, false
	}

	month, _ = strconv.Atoi(m[1])
	year, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return month, year, true
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
