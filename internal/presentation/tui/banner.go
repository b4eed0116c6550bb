package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lightpivot banner to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{" _ _       _     _         _            _   ", "#818cf8"},
		{"| (_) __ _| |__ | |_ _ __ (_)_   _____ | |_ ", "#a78bfa"},
		{"| | |/ _` | '_ \\| __| '_ \\| \\ \\ / / _ \\| __|", "#c084fc"},
		{"| | | (_| | | | | |_| |_) | |\\ V / (_) | |_ ", "#e879f9"},
		{"|_|_|\\__, |_| |_|\\__| .__/|_| \\_/ \\___/ \\__|", "#f472b6"},
		{"     |___/          |_|                      ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}
