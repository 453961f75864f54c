package views

import (
	"math"
	"strings"
)

// DialRadius is the dial radius in rows. Columns are doubled so the ring
// looks round in a terminal.
const DialRadius = 5

const (
	dialFilled = "●"
	dialEmpty  = "·"
)

// DialCenter is the cell offset of the dial centre inside RenderDial's
// output.
func DialCenter() (col, row int) {
	return 2 * DialRadius, DialRadius
}

// RenderDial draws a ring filled clockwise from 12 o'clock up to progress
// with label written across the centre row.
func RenderDial(progress float64, label string) string {
	progress = math.Max(0, math.Min(1, progress))
	cx, cy := DialCenter()
	rows := make([]string, 0, 2*DialRadius+1)
	for y := 0; y <= 2*DialRadius; y++ {
		cells := make([]string, 4*DialRadius+1)
		for x := range cells {
			cells[x] = " "
			dx := float64(x-cx) / 2
			dy := float64(y - cy)
			if math.Abs(math.Hypot(dx, dy)-DialRadius) >= 0.5 {
				continue
			}
			angle := math.Atan2(dx, -dy)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			if progress > 0 && angle/(2*math.Pi) <= progress {
				cells[x] = dialFilled
			} else {
				cells[x] = dialEmpty
			}
		}
		if y == cy && label != "" {
			start := cx - len([]rune(label))/2
			for i, r := range []rune(label) {
				if pos := start + i; pos > 0 && pos < len(cells)-1 {
					cells[pos] = string(r)
				}
			}
		}
		rows = append(rows, strings.TrimRight(strings.Join(cells, ""), " "))
	}
	return strings.Join(rows, "\n")
}
