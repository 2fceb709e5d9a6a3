package sheet

import (
	"fmt"
	"image"
	"math"

	"github.com/mandelsoft/interedit/pkg/sig"
)

// Staff is a horizontal row of a system. Its geometry is given by the
// ordinates of its first and last line at the left abscissa, lines
// follow the sheet skew.
type Staff struct {
	id     sig.StaffId
	system *System
	left   int
	right  int
	top    float64
	bottom float64
	slope  float64
}

func (s *Staff) Id() sig.StaffId {
	return s.id
}

func (s *Staff) System() *System {
	return s.system
}

func (s *Staff) String() string {
	return fmt.Sprintf("staff#%d", s.id)
}

func (s *Staff) Left() int {
	return s.left
}

func (s *Staff) Right() int {
	return s.right
}

// FirstLineY returns the ordinate of the first (top) line at abscissa x.
func (s *Staff) FirstLineY(x float64) float64 {
	return s.top + (x-float64(s.left))*s.slope
}

// LastLineY returns the ordinate of the last (bottom) line at abscissa x.
func (s *Staff) LastLineY(x float64) float64 {
	return s.bottom + (x-float64(s.left))*s.slope
}

// Bounds returns the area covered by the staff lines.
func (s *Staff) Bounds() image.Rectangle {
	y1 := math.Min(s.FirstLineY(float64(s.left)), s.FirstLineY(float64(s.right)))
	y2 := math.Max(s.LastLineY(float64(s.left)), s.LastLineY(float64(s.right)))
	return image.Rect(s.left, int(math.Floor(y1)), s.right, int(math.Ceil(y2))+1)
}

// Contains reports whether the point lies between first and last line.
func (s *Staff) Contains(pt image.Point) bool {
	if pt.X < s.left || pt.X > s.right {
		return false
	}
	x := float64(pt.X)
	y := float64(pt.Y)
	return y >= s.FirstLineY(x) && y <= s.LastLineY(x)
}

// DistanceTo returns the vertical distance of a point to the staff,
// 0 if the point is located within the staff height.
func (s *Staff) DistanceTo(pt image.Point) float64 {
	x := float64(pt.X)
	y := float64(pt.Y)
	top := s.FirstLineY(x)
	bottom := s.LastLineY(x)
	switch {
	case y < top:
		return top - y
	case y > bottom:
		return y - bottom
	default:
		return 0
	}
}
