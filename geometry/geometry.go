// Package geometry provides grid distance helpers for the isometric map.
// Diagonal adjacency counts as one step, so all checks use Chebyshev
// (chessboard) distance rather than Manhattan distance.
package geometry

// ChebyshevDistance 计算棋盘距离: max(|ax-bx|, |ay-by|)
func ChebyshevDistance(ax, ay, bx, by int) int {
	dx := ax - bx
	if dx < 0 {
		dx = -dx
	}
	dy := ay - by
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Point is a grid coordinate.
type Point struct {
	X int
	Y int
}

// CheckMinSeparation reports whether every pair of points is at least
// minTiles apart. Fewer than two points trivially passes (solo play).
func CheckMinSeparation(points []Point, minTiles int) bool {
	if len(points) < 2 {
		return true
	}
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if ChebyshevDistance(points[i].X, points[i].Y, points[j].X, points[j].Y) < minTiles {
				return false
			}
		}
	}
	return true
}
