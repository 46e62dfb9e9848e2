package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ___                          _ _      ___                  _   `, "#fbbf24"},
	{`  / __\___  _ __ ___  _ __ ___ (_) |_   /___\_   _  ___  ___| |_ `, "#f59e0b"},
	{` / /  / _ \| '_ ' _ \| '_ ' _ \| | __| //  // | | |/ _ \/ __| __|`, "#f97316"},
	{`/ /__| (_) | | | | | | | | | | | | |_ / \_//| |_| |  __/\__ \ |_ `, "#ef4444"},
	{`\____/\___/|_| |_| |_|_| |_| |_|_|\__|\___/  \__,_|\___||___/\__|`, "#dc2626"},
}

// PrintBanner writes the quest banner to w, coloured when w supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w)
}
