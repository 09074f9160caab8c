package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the presence banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _ __  _ __ ___  ___  ___ _ __   ___ ___ ", "#818cf8"},
		{"| '_ \\| '__/ _ \\/ __|/ _ \\ '_ \\ / __/ _ \\", "#a78bfa"},
		{"| |_) | | |  __/\\__ \\  __/ | | | (_|  __/", "#c084fc"},
		{"| .__/|_|  \\___||___/\\___|_| |_|\\___\\___|", "#e879f9"},
		{"|_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// StateStyle colors a node state name for terminal output.
func StateStyle(state string) termenv.Style {
	p := termenv.ColorProfile()
	s := termenv.String(state)
	switch state {
	case "entering":
		return s.Foreground(p.Color("#22c55e"))
	case "entered":
		return s.Foreground(p.Color("#4ade80")).Bold()
	case "pending-exit":
		return s.Foreground(p.Color("#facc15"))
	case "exiting":
		return s.Foreground(p.Color("#f97316"))
	case "exited":
		return s.Foreground(p.Color("#94a3b8")).Faint()
	default:
		return s
	}
}
