package app

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/posture_node/internal/report"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
	maxLines      = displayHeight / lineHeight
)

// Display mirrors the node's output on an SSD1306 OLED.
type Display struct {
	mu  sync.Mutex
	dev display.Drawer
}

// NewDisplay initializes an SSD1306 at its default address on bus.
func NewDisplay(bus i2c.Bus) (*Display, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	return &Display{dev: dev}, nil
}

// ShowSplash draws the boot screen.
func (d *Display) ShowSplash() error {
	return d.draw([]string{"", "Posture Node", "Double-press", "to toggle"})
}

// PublishReading implements node.Publisher.
func (d *Display) PublishReading(r report.Reading) error {
	return d.draw(readingLines(r))
}

// PublishMode implements node.Publisher.
func (d *Display) PublishMode(ev report.ModeEvent) error {
	return d.draw(modeLines(ev.DataEnabled))
}

func (d *Display) draw(lines []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Draw(d.dev.Bounds(), renderLines(lines), image.Point{})
}

func readingLines(r report.Reading) []string {
	if !r.DataEnabled {
		return []string{
			"Button Only",
			"Pressed: " + yesNo(r.Button),
		}
	}
	return []string{
		fmt.Sprintf("Roll: %7.2f", r.Roll),
		fmt.Sprintf("Temp: %6.2fC", r.TemperatureC),
		fmt.Sprintf("Posture: %s", r.Posture),
		fmt.Sprintf("Dist: %dcm %s", r.DistanceCM, buttonMark(r.Button)),
	}
}

func modeLines(dataEnabled bool) []string {
	if dataEnabled {
		return []string{"Mode:", "Data Enabled"}
	}
	return []string{"Mode:", "Button Only"}
}

func buttonMark(pressed bool) string {
	if pressed {
		return "[B]"
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// renderLines draws up to maxLines rows of 7x13 text, top aligned.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		if i >= maxLines {
			break
		}
		drawer.Dot = fixed.P(0, lineHeight*(i+1)-2)
		drawer.DrawString(line)
	}
	return img
}
