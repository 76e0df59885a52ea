package report

import (
	"testing"

	"github.com/relabs-tech/posture_node/internal/orientation"
)

func TestParse_Data(t *testing.T) {
	msg, err := Parse("Roll: -12.50°, Temp: 25.75°C, , Posture: Bad, Distance: 42cm, Button: Yes\r\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if msg.Kind != KindData {
		t.Fatalf("Kind = %s, want data", msg.Kind)
	}
	want := Reading{
		DataEnabled:  true,
		Roll:         -12.5,
		TemperatureC: 25.75,
		Posture:      orientation.Bad,
		DistanceCM:   42,
		Button:       true,
	}
	if msg.Reading != want {
		t.Errorf("Reading = %+v, want %+v", msg.Reading, want)
	}
}

func TestParse_LineOutput(t *testing.T) {
	r := Reading{
		DataEnabled:  true,
		Roll:         -150.25,
		TemperatureC: 30.5,
		Posture:      orientation.Good,
		DistanceCM:   120,
	}
	msg, err := Parse(r.Line())
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", r.Line(), err)
	}
	if msg.Reading != r {
		t.Errorf("Reading = %+v, want %+v", msg.Reading, r)
	}
}

func TestParse_ButtonAndMode(t *testing.T) {
	tests := []struct {
		line    string
		kind    Kind
		button  bool
		enabled bool
	}{
		{line: "Button Pressed: Yes", kind: KindButton, button: true},
		{line: "Button Pressed: No\r", kind: KindButton},
		{line: "Mode: Data Enabled", kind: KindMode, enabled: true},
		{line: "Mode: Button Only", kind: KindMode},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if msg.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", msg.Kind, tt.kind)
			}
			if msg.Reading.Button != tt.button {
				t.Errorf("Button = %v, want %v", msg.Reading.Button, tt.button)
			}
			if msg.DataEnabled != tt.enabled {
				t.Errorf("DataEnabled = %v, want %v", msg.DataEnabled, tt.enabled)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"Mode: Sleeping",
		"Button Pressed: Maybe",
		"Roll: 1.00°, Temp: 2.00°C, , Posture: Bad, Distance: 3cm",
		"Roll: abc°, Temp: 2.00°C, , Posture: Bad, Distance: 3cm, Button: No",
		"Roll: 1.00°, Temp: 2.00°C, , Posture: Slouched, Distance: 3cm, Button: No",
		"Roll: 1.00°, Temp: 2.00°C, , Posture: Bad, Distance: 3cm, Button: No, Extra: 1",
		"garbage from boot",
	}
	for _, line := range tests {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) error = nil, want non-nil", line)
		}
	}
}
