package geo

import (
	"math"
	"testing"
)

func testView() ViewState {
	return ViewState{
		Center: Position{Latitude: 50.0, Longitude: 8.6},
		Zoom:   7,
		Width:  120,
		Height: 40,
	}
}

// TestProjectCenter tests that the view center lands in the middle of the
// viewport.
func TestProjectCenter(t *testing.T) {
	v := testView()
	px := v.Project(v.Center)

	if math.Abs(px.X-60) > 1e-9 {
		t.Errorf("Expected center X at 60, got %f", px.X)
	}
	if math.Abs(px.Y-20) > 1e-9 {
		t.Errorf("Expected center Y at 20, got %f", px.Y)
	}
}

// TestProjectDirections tests that east is +X and north is -Y.
func TestProjectDirections(t *testing.T) {
	v := testView()

	east := v.Project(Position{Latitude: 50.0, Longitude: 9.6})
	if east.X <= 60 {
		t.Errorf("Expected east of center to project right of X=60, got %f", east.X)
	}

	north := v.Project(Position{Latitude: 51.0, Longitude: 8.6})
	if north.Y >= 20 {
		t.Errorf("Expected north of center to project above Y=20, got %f", north.Y)
	}
}

// TestProjectUnprojectRoundTrip tests that projection inverts cleanly.
func TestProjectUnprojectRoundTrip(t *testing.T) {
	v := testView()

	positions := []Position{
		{Latitude: 50.0, Longitude: 8.6},
		{Latitude: 48.85, Longitude: 2.35},
		{Latitude: 52.52, Longitude: 13.4},
		{Latitude: -33.86, Longitude: 151.2},
	}

	for _, pos := range positions {
		got := v.Unproject(v.Project(pos))
		if math.Abs(got.Latitude-pos.Latitude) > 1e-6 ||
			math.Abs(got.Longitude-pos.Longitude) > 1e-6 {
			t.Errorf("Round trip of %+v gave %+v", pos, got)
		}
	}
}

// TestProjectClampsPolarLatitude tests the Web-Mercator latitude limit.
func TestProjectClampsPolarLatitude(t *testing.T) {
	v := testView()

	pole := v.Project(Position{Latitude: 89.9, Longitude: 8.6})
	limit := v.Project(Position{Latitude: maxMercatorLat, Longitude: 8.6})

	if pole.Y != limit.Y {
		t.Errorf("Expected polar latitude clamped to projection limit, got %f vs %f", pole.Y, limit.Y)
	}
}

// TestViewBounds tests that the visible bounds contain the center and are
// correctly ordered.
func TestViewBounds(t *testing.T) {
	v := testView()
	b := v.Bounds()

	if b.South >= b.North || b.West >= b.East {
		t.Fatalf("Bounds inverted: %+v", b)
	}
	if !b.Contains(v.Center) {
		t.Errorf("Expected bounds to contain center, got %+v", b)
	}
}

// TestPanned tests pixel-space panning.
func TestPanned(t *testing.T) {
	v := testView()

	right := v.Panned(10, 0)
	if right.Center.Longitude <= v.Center.Longitude {
		t.Errorf("Expected pan right to increase longitude, got %f", right.Center.Longitude)
	}

	up := v.Panned(0, -10)
	if up.Center.Latitude <= v.Center.Latitude {
		t.Errorf("Expected pan up to increase latitude, got %f", up.Center.Latitude)
	}

	// Original view is untouched.
	if v.Center.Longitude != 8.6 {
		t.Errorf("Expected original view unchanged, got %f", v.Center.Longitude)
	}
}

// TestZoomed tests zoom delta and clamping.
func TestZoomed(t *testing.T) {
	v := testView()

	if z := v.Zoomed(1).Zoom; z != 8 {
		t.Errorf("Expected zoom 8, got %f", z)
	}
	if z := v.Zoomed(-10).Zoom; z != 1 {
		t.Errorf("Expected zoom clamped to 1, got %f", z)
	}
	if z := v.Zoomed(100).Zoom; z != 19 {
		t.Errorf("Expected zoom clamped to 19, got %f", z)
	}
}

// TestZoomedScalesProjection tests that each +1 zoom doubles pixel offsets
// from center.
func TestZoomedScalesProjection(t *testing.T) {
	v := testView()
	target := Position{Latitude: 50.0, Longitude: 9.0}

	dx1 := v.Project(target).X - 60
	dx2 := v.Zoomed(1).Project(target).X - 60

	if math.Abs(dx2-2*dx1) > 1e-6 {
		t.Errorf("Expected doubled offset, got %f vs %f", dx2, 2*dx1)
	}
}
