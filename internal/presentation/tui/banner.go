package tui

import (
	"fmt"
	"io"
)

// ScreenTitle is the heading shown above the task list.
const ScreenTitle = "A-nod"

// PrintBanner outputs the screen banner in the theme's title and accent colors.
func (r *Renderer) PrintBanner(w io.Writer) {
	s1 := r.profile.String("    _        _  _         _ ").Foreground(r.profile.Color(r.palette.Title))
	s2 := r.profile.String("   /_\\  ___ | \\| |___  __| |").Foreground(r.profile.Color(r.palette.Title))
	s3 := r.profile.String("  / _ \\|___|| .` / _ \\/ _` |").Foreground(r.profile.Color(r.palette.Accent))
	s4 := r.profile.String(" /_/ \\_\\    |_|\\_\\___/\\__,_|").Foreground(r.profile.Color(r.palette.Accent))

	fmt.Fprintln(w)
	fmt.Fprintln(w, s1)
	fmt.Fprintln(w, s2)
	fmt.Fprintln(w, s3)
	fmt.Fprintln(w, s4)
	fmt.Fprintln(w)
}
