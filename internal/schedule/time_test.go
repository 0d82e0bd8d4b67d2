package schedule

import (
	"testing"
	"time"
)

func TestHour24(t *testing.T) {
	tests := []struct {
		hour      int
		isMorning bool
		want      int
	}{
		{12, true, 0},
		{1, true, 1},
		{9, true, 9},
		{11, true, 11},
		{12, false, 12},
		{1, false, 13},
		{9, false, 21},
		{11, false, 23},
	}

	for _, tt := range tests {
		rt := RegistrationTime{Hour: tt.hour, Minute: 0, IsMorning: tt.isMorning}
		if got := rt.Hour24(); got != tt.want {
			t.Errorf("%s.Hour24() = %d, want %d", rt, got, tt.want)
		}
	}
}

func TestRegistrationTimeString(t *testing.T) {
	if got := (RegistrationTime{Hour: 9, Minute: 5, IsMorning: true}).String(); got != "09:05 AM" {
		t.Errorf("Expected '09:05 AM', got '%s'", got)
	}
	if got := (RegistrationTime{Hour: 12, Minute: 30}).String(); got != "12:30 PM" {
		t.Errorf("Expected '12:30 PM', got '%s'", got)
	}
}

func TestParseRegistrationTime(t *testing.T) {
	tests := []struct {
		input   string
		want    RegistrationTime
		wantErr bool
	}{
		{input: "9:30 AM", want: RegistrationTime{9, 30, true}},
		{input: "09:30am", want: RegistrationTime{9, 30, true}},
		{input: " 12:05 p.m. ", want: RegistrationTime{12, 5, false}},
		{input: "12:00 AM", want: RegistrationTime{12, 0, true}},
		{input: "7:45 PM", want: RegistrationTime{7, 45, false}},
		{input: "13:00 PM", wantErr: true},
		{input: "0:15 AM", wantErr: true},
		{input: "9:60 AM", wantErr: true},
		{input: "9:30", wantErr: true},
		{input: "nine thirty", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRegistrationTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRegistrationTime(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRegistrationTime(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFireInstant(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	day := func(d, h, m, s, ms int) time.Time {
		return time.Date(2026, time.November, d, h, m, s, ms*int(time.Millisecond), loc)
	}
	nineThirty := RegistrationTime{Hour: 9, Minute: 30, IsMorning: true}

	tests := []struct {
		name   string
		target RegistrationTime
		now    time.Time
		want   time.Time
	}{
		{"later today", nineThirty, day(2, 8, 0, 0, 0), day(2, 9, 30, 0, 0)},
		{"one millisecond before", nineThirty, day(2, 9, 29, 59, 999), day(2, 9, 30, 0, 0)},
		{"inside the target minute", nineThirty, day(2, 9, 30, 0, 500), day(2, 9, 30, 0, 0)},
		{"end of the target minute", nineThirty, day(2, 9, 30, 59, 999), day(2, 9, 30, 0, 0)},
		{"already passed", nineThirty, day(2, 9, 31, 0, 0), day(3, 9, 30, 0, 0)},
		{"midnight target", RegistrationTime{Hour: 12, Minute: 0, IsMorning: true}, day(2, 23, 59, 0, 0), day(3, 0, 0, 0, 0)},
		{"noon target", RegistrationTime{Hour: 12, Minute: 0}, day(2, 11, 0, 0, 0), day(2, 12, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.FireInstant(tt.now); !got.Equal(tt.want) {
				t.Errorf("FireInstant(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
