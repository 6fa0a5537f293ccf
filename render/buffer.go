package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/lixenwraith/tickpipe/core"
	"github.com/lixenwraith/tickpipe/parameter"
)

// WriterSink renders frames as plain text grids to an io.Writer
// Used for headless runs; output mirrors the screen layout without styling
type WriterSink struct {
	w      io.Writer
	width  int
	height int
	clear  bool

	grid []rune
	buf  bytes.Buffer
}

// NewWriterSink creates a text sink; clear prefixes each frame with an ANSI home+clear sequence
func NewWriterSink(w io.Writer, width, height int, clear bool) *WriterSink {
	return &WriterSink{
		w:      w,
		width:  width,
		height: height,
		clear:  clear,
		grid:   make([]rune, width*height),
	}
}

// Draw writes one frame in a single Write call
func (s *WriterSink) Draw(frame Frame, health HealthView) error {
	for i := range s.grid {
		s.grid[i] = ' '
	}
	for _, p := range frame.Packets {
		if p.X < 0 || p.X >= s.width || p.Y < 0 || p.Y >= s.height {
			continue
		}
		s.grid[p.Y*s.width+p.X] = p.Glyph
	}

	s.buf.Reset()
	if s.clear {
		s.buf.WriteString("\x1b[H\x1b[2J")
	}
	for y := 0; y < s.height; y++ {
		s.buf.WriteString(string(s.grid[y*s.width : (y+1)*s.width]))
		s.buf.WriteByte('\n')
	}
	s.buf.WriteString(strings.Repeat("-", s.width))
	s.buf.WriteByte('\n')
	s.buf.WriteString(HealthLine(health))
	s.buf.WriteByte('\n')

	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("write frame %d: %w", frame.Generation, err)
	}
	return nil
}

// HealthLine formats the health of the first active entities as "[Entity n] HP: h | ..."
func HealthLine(health HealthView) string {
	var b strings.Builder
	n := 0
	health.Each(func(e core.Entity, hp, _ int) bool {
		fmt.Fprintf(&b, "[Entity %d] HP: %d | ", e, hp)
		n++
		return n < parameter.HealthReportLimit
	})
	return b.String()
}
