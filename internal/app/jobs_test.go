package app

import "testing"

func TestTimeOfDayToCron(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:00", "0 9 * * *", false},
		{"21:30", "30 21 * * *", false},
		{" 00:00 ", "0 0 * * *", false},
		{"23:59", "59 23 * * *", false},
		{"24:00", "", true},
		{"09:60", "", true},
		{"0900", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := timeOfDayToCron(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("timeOfDayToCron(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("timeOfDayToCron(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("timeOfDayToCron(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCronSpecsParse(t *testing.T) {
	for _, spec := range []string{"0 9 * * *", "30 21 * * *", "@every 30s", "@daily"} {
		if _, err := cronParser.Parse(spec); err != nil {
			t.Errorf("spec %q rejected: %v", spec, err)
		}
	}
}
