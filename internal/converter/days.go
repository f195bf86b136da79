package converter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Selection picks days out of a Period.
type Selection string

const (
	SelectAll      Selection = "all"
	SelectWeekends Selection = "weekends"
	SelectWorkdays Selection = "workdays"
)

// ParseSelection validates a selection name.
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(strings.ToLower(strings.TrimSpace(s))); sel {
	case SelectAll, SelectWeekends, SelectWorkdays:
		return sel, nil
	}
	return "", fmt.Errorf("unknown day selection %q (valid: all, weekends, workdays)", s)
}

// Select returns the period's days matching sel, in ascending order.
func (p *Period) Select(sel Selection) []int {
	var out []int
	for _, d := range p.Days {
		wd := time.Date(p.Year, time.Month(p.Month), d, 0, 0, 0, 0, time.Local).Weekday()
		weekend := wd == time.Saturday || wd == time.Sunday

		switch {
		case sel == SelectWeekends && !weekend:
			continue
		case sel == SelectWorkdays && weekend:
			continue
		}
		out = append(out, d)
	}
	return out
}

// ParseDayList parses a day list such as "1,2,5" or "1-3,7". Duplicates are
// dropped and the order of first appearance is kept.
func ParseDayList(s string) ([]int, error) {
	seen := make(map[int]bool)
	var days []int
	add := func(d int) error {
		if d < 1 || d > 31 {
			return fmt.Errorf("day %d is out of range", d)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
		return nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to, isRange := strings.Cut(part, "-")
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid day %q", part)
		}
		hi := lo
		if isRange {
			if hi, err = strconv.Atoi(strings.TrimSpace(to)); err != nil || hi < lo {
				return nil, fmt.Errorf("invalid day range %q", part)
			}
		}
		for d := lo; d <= hi; d++ {
			if err := add(d); err != nil {
				return nil, err
			}
		}
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("no days given")
	}
	return days, nil
}
