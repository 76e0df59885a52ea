package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/posture_node/internal/orientation"
)

// Kind identifies which of the three serial line shapes was parsed.
type Kind int

const (
	KindData Kind = iota + 1
	KindButton
	KindMode
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindButton:
		return "button"
	case KindMode:
		return "mode"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Message is a parsed serial line. Reading is set for data and button lines,
// DataEnabled for all three.
type Message struct {
	Kind        Kind
	Reading     Reading
	DataEnabled bool
}

const (
	modePrefix   = "Mode: "
	buttonPrefix = "Button Pressed: "
)

// Parse reads one line of node output. Empty fields between separators are
// skipped.
func Parse(line string) (Message, error) {
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return Message{}, fmt.Errorf("empty line")

	case strings.HasPrefix(line, modePrefix):
		switch strings.TrimPrefix(line, modePrefix) {
		case "Data Enabled":
			return Message{Kind: KindMode, DataEnabled: true}, nil
		case "Button Only":
			return Message{Kind: KindMode, DataEnabled: false}, nil
		default:
			return Message{}, fmt.Errorf("unknown mode in %q", line)
		}

	case strings.HasPrefix(line, buttonPrefix):
		pressed, err := parseYesNo(strings.TrimPrefix(line, buttonPrefix))
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindButton, Reading: Reading{Button: pressed}}, nil
	}

	return parseData(line)
}

func parseData(line string) (Message, error) {
	r := Reading{DataEnabled: true}
	seen := map[string]bool{}

	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, ": ")
		if !ok {
			return Message{}, fmt.Errorf("malformed field %q", field)
		}

		var err error
		switch key {
		case "Roll":
			r.Roll, err = strconv.ParseFloat(strings.TrimSuffix(value, "°"), 64)
		case "Temp":
			r.TemperatureC, err = strconv.ParseFloat(strings.TrimSuffix(value, "°C"), 64)
		case "Posture":
			switch p := orientation.Posture(value); p {
			case orientation.Good, orientation.Bad:
				r.Posture = p
			default:
				err = fmt.Errorf("unknown posture %q", value)
			}
		case "Distance":
			r.DistanceCM, err = strconv.ParseInt(strings.TrimSuffix(value, "cm"), 10, 64)
		case "Button":
			r.Button, err = parseYesNo(value)
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return Message{}, fmt.Errorf("field %s: %w", key, err)
		}
		seen[key] = true
	}

	for _, key := range []string{"Roll", "Temp", "Posture", "Distance", "Button"} {
		if !seen[key] {
			return Message{}, fmt.Errorf("missing field %s in %q", key, line)
		}
	}
	return Message{Kind: KindData, Reading: r, DataEnabled: true}, nil
}

func parseYesNo(s string) (bool, error) {
	switch s {
	case "Yes":
		return true, nil
	case "No":
		return false, nil
	default:
		return false, fmt.Errorf("expected Yes or No, got %q", s)
	}
}
