package geometry

import "testing"

func TestChebyshevDistance(t *testing.T) {
	cases := []struct {
		ax, ay, bx, by int
		want           int
	}{
		{0, 0, 0, 0, 0},
		{5, 5, 7, 7, 2},
		{5, 5, 8, 8, 3},
		{0, 0, 3, 1, 3},
		{0, 0, 1, 3, 3},
		{-2, -2, 2, 2, 4},
	}

	for _, c := range cases {
		got := ChebyshevDistance(c.ax, c.ay, c.bx, c.by)
		if got != c.want {
			t.Errorf("ChebyshevDistance(%d,%d,%d,%d) = %d, want %d", c.ax, c.ay, c.bx, c.by, got, c.want)
		}
	}
}

func TestChebyshevDistance_Symmetric(t *testing.T) {
	points := []Point{{0, 0}, {3, -1}, {7, 7}, {-4, 2}, {12, 5}}
	for _, a := range points {
		for _, b := range points {
			ab := ChebyshevDistance(a.X, a.Y, b.X, b.Y)
			ba := ChebyshevDistance(b.X, b.Y, a.X, a.Y)
			if ab != ba {
				t.Errorf("distance not symmetric for %v,%v: %d vs %d", a, b, ab, ba)
			}
		}
		if d := ChebyshevDistance(a.X, a.Y, a.X, a.Y); d != 0 {
			t.Errorf("distance to self should be 0 for %v, got %d", a, d)
		}
	}
}

func TestCheckMinSeparation(t *testing.T) {
	// Fewer than two points always passes.
	if !CheckMinSeparation(nil, 10) {
		t.Error("empty point list should pass")
	}
	if !CheckMinSeparation([]Point{{1, 1}}, 10) {
		t.Error("single point should pass")
	}

	far := []Point{{0, 0}, {5, 5}, {10, 0}}
	if !CheckMinSeparation(far, 5) {
		t.Error("points at distance >= 5 should pass minTiles=5")
	}

	close := []Point{{0, 0}, {5, 5}, {6, 5}}
	if CheckMinSeparation(close, 5) {
		t.Error("a single close pair should fail the separation check")
	}
}
