package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/status"
)

// ScreenSink draws frames onto a tcell screen
// Layout: world rectangle at origin, separator row, health line, status line
type ScreenSink struct {
	screen tcell.Screen
	width  int
	height int
	reg    *status.Registry
	down   []bool

	styleEntity tcell.Style
	styleDown   tcell.Style
	styleFrame  tcell.Style
	styleHealth tcell.Style
	styleStatus tcell.Style
}

// NewScreenSink creates a sink for a width x height world; reg may be nil to omit the status line
func NewScreenSink(screen tcell.Screen, width, height int, reg *status.Registry) *ScreenSink {
	base := tcell.StyleDefault.Background(tcell.ColorBlack)
	return &ScreenSink{
		screen:      screen,
		width:       width,
		height:      height,
		reg:         reg,
		down:        make([]bool, core.Capacity),
		styleEntity: base.Foreground(tcell.NewRGBColor(0, 255, 127)).Bold(true),
		styleDown:   base.Foreground(tcell.NewRGBColor(160, 40, 40)),
		styleFrame:  base.Foreground(tcell.NewRGBColor(90, 90, 90)),
		styleHealth: base.Foreground(tcell.NewRGBColor(220, 220, 220)),
		styleStatus: base.Foreground(tcell.NewRGBColor(0, 200, 255)),
	}
}

// Draw clears the screen, draws packets and the health/status lines, then shows the result
func (s *ScreenSink) Draw(frame Frame, health HealthView) error {
	s.screen.Clear()

	clear(s.down)
	health.Each(func(e core.Entity, hp, _ int) bool {
		s.down[e] = hp == 0
		return true
	})

	for _, p := range frame.Packets {
		if p.X < 0 || p.X >= s.width || p.Y < 0 || p.Y >= s.height {
			continue
		}
		style := s.styleEntity
		if s.down[p.Entity] {
			style = s.styleDown
		}
		s.screen.SetContent(p.X, p.Y, p.Glyph, nil, style)
	}

	for x := 0; x < s.width; x++ {
		s.screen.SetContent(x, s.height, '-', nil, s.styleFrame)
	}
	s.drawText(0, s.height+1, HealthLine(health), s.styleHealth)
	if s.reg != nil {
		s.drawText(0, s.height+2, s.reg.Summary(), s.styleStatus)
	}

	s.screen.Show()
	return nil
}

func (s *ScreenSink) drawText(x, y int, text string, style tcell.Style) {
	for _, ch := range text {
		s.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
