package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestSparklineWindowSlides(t *testing.T) {
	s := NewSparkline(3, "x", lipgloss.NewStyle())
	for i := uint64(1); i <= 5; i++ {
		s.Add(i)
	}
	assert.Equal(t, []uint64{3, 4, 5}, s.Data)
	assert.Equal(t, uint64(5), s.Max)
}

func TestSparklineMaxTracksVisibleWindow(t *testing.T) {
	s := NewSparkline(2, "x", lipgloss.NewStyle())
	s.Add(100)
	s.Add(1)
	assert.Equal(t, uint64(100), s.Max)

	s.Add(2) // 100 slides out
	assert.Equal(t, uint64(2), s.Max)
}

func TestSparklineViewPadsToWidth(t *testing.T) {
	s := NewSparkline(5, "reqs", lipgloss.NewStyle())
	s.Add(1)
	s.Add(8)

	lines := strings.Split(s.View(), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "reqs", lines[0])
	assert.Equal(t, 5, len([]rune(lines[1])))
	assert.Contains(t, lines[1], "█", "window max renders full height")
}

func TestSparklineZeroWidth(t *testing.T) {
	s := NewSparkline(0, "x", lipgloss.NewStyle())
	s.Add(1)
	assert.Equal(t, "", s.View())
}
