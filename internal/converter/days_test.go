package converter

import (
	"reflect"
	"testing"
)

func TestParseDayList(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "1,2,5", want: []int{1, 2, 5}},
		{in: " 5, 1 ,5", want: []int{5, 1}},
		{in: "1-3,7", want: []int{1, 2, 3, 7}},
		{in: "30-31", want: []int{30, 31}},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "32", wantErr: true},
		{in: "3-1", wantErr: true},
		{in: "x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDayList(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDayList(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseDayList(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestPeriodSelect(t *testing.T) {
	// June 2025: the 7th and 8th are a Saturday and a Sunday.
	p := &Period{Month: 6, Year: 2025, Days: []int{5, 6, 7, 8, 9}}

	if got := p.Select(SelectAll); !reflect.DeepEqual(got, []int{5, 6, 7, 8, 9}) {
		t.Errorf("all = %v", got)
	}
	if got := p.Select(SelectWeekends); !reflect.DeepEqual(got, []int{7, 8}) {
		t.Errorf("weekends = %v", got)
	}
	if got := p.Select(SelectWorkdays); !reflect.DeepEqual(got, []int{5, 6, 9}) {
		t.Errorf("workdays = %v", got)
	}
}

func TestParseSelection(t *testing.T) {
	if sel, err := ParseSelection(" Weekends "); err != nil || sel != SelectWeekends {
		t.Errorf("ParseSelection = %q, %v", sel, err)
	}
	if _, err := ParseSelection("holidays"); err == nil {
		t.Error("expected an error")
	}
}
