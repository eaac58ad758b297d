package geo

import "math"

const (
	// tileSize is the Web-Mercator world tile edge in pixels at zoom 0.
	tileSize = 256.0

	// maxMercatorLat is the latitude limit of the Web-Mercator projection.
	maxMercatorLat = 85.05112878
)

// Pixel is a point in viewport pixel coordinates, (0,0) at top-left.
type Pixel struct {
	X float64
	Y float64
}

// ViewState is an immutable description of the current viewport: where the
// map is centered, how far it is zoomed, and how large the drawing surface
// is. The draw path captures one ViewState per frame so every projection in
// that frame sees the same pan/zoom values.
type ViewState struct {
	// Center is the geographic point at the middle of the viewport.
	Center Position

	// Zoom is the fractional Web-Mercator zoom level (0 = whole world
	// in one 256px tile). Each +1 doubles the pixels per degree.
	Zoom float64

	// Width and Height are the drawing surface dimensions in pixels.
	Width  int
	Height int
}

// worldSize returns the full projected world edge in pixels at this zoom.
func (v ViewState) worldSize() float64 {
	return tileSize * math.Exp2(v.Zoom)
}

// worldPixel projects a position onto the full world plane.
func (v ViewState) worldPixel(p Position) Pixel {
	lat := p.Latitude
	if lat > maxMercatorLat {
		lat = maxMercatorLat
	}
	if lat < -maxMercatorLat {
		lat = -maxMercatorLat
	}

	size := v.worldSize()
	x := (p.Longitude + 180) / 360 * size

	sinLat := math.Sin(lat * DegreesToRadians)
	y := (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * size

	return Pixel{X: x, Y: y}
}

// Project converts a geographic position to viewport pixel coordinates.
// Callers must validate positions first; NaN input is not defined here.
func (v ViewState) Project(p Position) Pixel {
	world := v.worldPixel(p)
	center := v.worldPixel(v.Center)

	return Pixel{
		X: world.X - center.X + float64(v.Width)/2,
		Y: world.Y - center.Y + float64(v.Height)/2,
	}
}

// Unproject converts viewport pixel coordinates back to a geographic
// position. Used for pan math and for deriving the visible bounds.
func (v ViewState) Unproject(px Pixel) Position {
	size := v.worldSize()
	center := v.worldPixel(v.Center)

	x := center.X + px.X - float64(v.Width)/2
	y := center.Y + px.Y - float64(v.Height)/2

	lon := x/size*360 - 180

	n := math.Pi - 2*math.Pi*y/size
	lat := RadiansToDegrees * math.Atan(math.Sinh(n))

	return Position{Latitude: lat, Longitude: lon}
}

// Bounds returns the geographic rectangle currently visible in the viewport.
func (v ViewState) Bounds() Bounds {
	topLeft := v.Unproject(Pixel{X: 0, Y: 0})
	bottomRight := v.Unproject(Pixel{X: float64(v.Width), Y: float64(v.Height)})

	return Bounds{
		South: math.Min(topLeft.Latitude, bottomRight.Latitude),
		West:  math.Min(topLeft.Longitude, bottomRight.Longitude),
		North: math.Max(topLeft.Latitude, bottomRight.Latitude),
		East:  math.Max(topLeft.Longitude, bottomRight.Longitude),
	}
}

// Panned returns a copy of the view shifted by the given pixel deltas.
func (v ViewState) Panned(dx, dy float64) ViewState {
	next := v
	next.Center = v.Unproject(Pixel{
		X: float64(v.Width)/2 + dx,
		Y: float64(v.Height)/2 + dy,
	})
	return next
}

// Zoomed returns a copy of the view with the zoom level changed by delta,
// clamped to a usable range.
func (v ViewState) Zoomed(delta float64) ViewState {
	next := v
	next.Zoom += delta
	if next.Zoom < 1 {
		next.Zoom = 1
	}
	if next.Zoom > 19 {
		next.Zoom = 19
	}
	return next
}
