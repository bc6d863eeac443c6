package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// UI styling constants, carried over from the original operator console's
// palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#06B6D4") // Cyan
	accentColor    = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	textColor      = lipgloss.Color("#F8FAFC")
	mutedColor     = lipgloss.Color("#94A3B8")

	baseStyle = lipgloss.NewStyle().
			Foreground(textColor)

	basePanelStyle = baseStyle.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1).
			Margin(0, 0)

	headerStyle = baseStyle.
			Foreground(primaryColor).
			Bold(true)

	promptStyle = baseStyle.
			Foreground(primaryColor).
			Bold(true)

	roomStyle = baseStyle.
			Foreground(secondaryColor)

	activeStyle = baseStyle.
			Foreground(accentColor).
			Bold(true)

	inactiveStyle = baseStyle.
			Foreground(mutedColor)

	errorStyle = baseStyle.
			Foreground(errorColor)

	warnStyle = baseStyle.
			Foreground(warningColor)
)

// UI renders the rolling feed of room events this console has subscribed to.
type UI struct {
	termWidth int
}

// NewUI builds a UI, probing the terminal width for wrapping the event feed.
func NewUI() *UI {
	ui := &UI{termWidth: 80}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		ui.termWidth = w
	}
	return ui
}

// RenderEvent prints one room event as a styled, timestamped line. Event
// types are colored by keyword: disaster events use the error style,
// warning/shortage events the warning style, construction/production
// events the active style, and everything else the header style.
func (ui *UI) RenderEvent(room, eventType string, payload interface{}, ts time.Time) {
	style := eventStyle(eventType)
	ts = tsOrNow(ts)

	header := fmt.Sprintf("[%s] %s %s",
		inactiveStyle.Render(ts.Format("15:04:05")),
		roomStyle.Render(room),
		style.Render(eventType))
	fmt.Println(header)

	if payload != nil {
		fmt.Println(basePanelStyle.Width(ui.termWidth - 4).Render(formatPayload(payload)))
	}
}

func tsOrNow(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now()
	}
	return ts
}

func eventStyle(eventType string) lipgloss.Style {
	switch {
	case strings.Contains(eventType, "disaster"):
		return errorStyle
	case strings.Contains(eventType, "warning") || strings.Contains(eventType, "shortage"):
		return warnStyle
	case strings.Contains(eventType, "construction") || strings.Contains(eventType, "production"):
		return activeStyle
	default:
		return headerStyle
	}
}

// formatPayload renders an arbitrary decoded-JSON payload as indented
// key: value lines. Keys are not sorted, so they print in Go's map
// iteration order, which varies from call to call.
func formatPayload(payload interface{}) string {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%v", payload)
	}
	var lines []string
	for k, v := range m {
		lines = append(lines, fmt.Sprintf("%s: %s", mutedStyleKey(k), formatValue(v)))
	}
	return strings.Join(lines, "\n")
}

func mutedStyleKey(k string) string {
	return inactiveStyle.Render(k)
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
