package output

import (
	"github.com/fatih/color"
	"github.com/kataras/tablewriter"
)

type palette struct {
	boldGreen  *color.Color
	boldRed    *color.Color
	boldYellow *color.Color
	boldCyan   *color.Color

	headerBg int
	headerFg int
}

func newPalette(noColor bool) palette {
	toggle := func(c *color.Color) *color.Color {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c
	}
	p := palette{
		boldGreen:  toggle(color.New(color.FgGreen).Add(color.Bold)),
		boldRed:    toggle(color.New(color.FgRed).Add(color.Bold)),
		boldYellow: toggle(color.New(color.FgYellow).Add(color.Bold)),
		boldCyan:   toggle(color.New(color.FgCyan).Add(color.Bold)),
	}
	if !noColor {
		p.headerBg = tablewriter.BgBlackColor
		p.headerFg = tablewriter.FgGreenColor
	}
	return p
}

func (p palette) status(passed bool) string {
	if passed {
		return p.boldGreen.Sprint("PASS")
	}
	return p.boldRed.Sprint("FAIL")
}
