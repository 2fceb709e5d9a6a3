// Package geom provides the few geometric helpers needed to place and
// compare interpretations. Everything is expressed with image.Point and
// image.Rectangle, which use the sheet pixel coordinate system (y grows
// downwards).
package geom

import (
	"image"
	"math"
)

// Center returns the center of a rectangle.
func Center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// Union returns the smallest rectangle containing all given ones.
// Empty rectangles are ignored.
func Union(rects ...image.Rectangle) image.Rectangle {
	var u image.Rectangle
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		if u.Empty() {
			u = r
		} else {
			u = u.Union(r)
		}
	}
	return u
}

// Intersects reports whether two rectangles share at least one pixel.
func Intersects(a, b image.Rectangle) bool {
	return a.Overlaps(b)
}

// Box builds a rectangle of the given size centered at c.
func Box(c image.Point, width, height int) image.Rectangle {
	return image.Rect(c.X-width/2, c.Y-height/2, c.X-width/2+width, c.Y-height/2+height)
}

// Distance returns the euclidean distance between two points.
func Distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// Line is a straight segment in sheet coordinates.
type Line struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Point is a real-valued point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Rounded() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// VerticalMedian returns the vertical center line of a rectangle, from top
// to bottom.
func VerticalMedian(r image.Rectangle) Line {
	x := float64(r.Min.X+r.Max.X) / 2
	return Line{P1: Point{x, float64(r.Min.Y)}, P2: Point{x, float64(r.Max.Y)}}
}

// XAtY returns the abscissa of the (infinite) line at the given ordinate.
// For horizontal lines the abscissa of P1 is returned.
func (l Line) XAtY(y float64) float64 {
	dy := l.P2.Y - l.P1.Y
	if dy == 0 {
		return l.P1.X
	}
	return l.P1.X + (y-l.P1.Y)*(l.P2.X-l.P1.X)/dy
}

// IntersectionAtY projects the ordinate y onto the line.
func (l Line) IntersectionAtY(y float64) Point {
	return Point{l.XAtY(y), y}
}

// VerticalParallelogram returns the bounds of the parallelogram of the
// given width built around the segment top-bottom.
func VerticalParallelogram(top, bottom image.Point, width int) image.Rectangle {
	half := float64(width) / 2
	minX := math.Min(float64(top.X), float64(bottom.X)) - half
	maxX := math.Max(float64(top.X), float64(bottom.X)) + half
	minY := top.Y
	maxY := bottom.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return image.Rect(int(math.Floor(minX)), minY, int(math.Ceil(maxX)), maxY+1)
}
