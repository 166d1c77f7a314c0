package weights

// point is an integer pixel coordinate, the boundary-tracing and
// polygon-approximation currency throughout this package.
type point struct {
	X, Y int
}

// largestExternalContour finds every 4-connected foreground component
// of m, traces each one's outer boundary with Moore-neighbor tracing,
// and returns the boundary of the component with the largest pixel
// area. If m has no foreground pixels it returns nil, matching the
// degenerate-capture fallback: an empty polygon leaves the weight field
// at its initial mask value.
func largestExternalContour(m *mask) []point {
	visited := make([]bool, len(m.pix))
	var bestBoundary []point
	bestArea := 0

	for sy := 0; sy < m.h; sy++ {
		for sx := 0; sx < m.w; sx++ {
			idx := sy*m.w + sx
			if m.pix[idx] == 0 || visited[idx] {
				continue
			}
			area, boundary := floodAndTrace(m, visited, sx, sy)
			if area > bestArea {
				bestArea = area
				bestBoundary = boundary
			}
		}
	}
	return bestBoundary
}

var neigh4 = [4]point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// floodAndTrace marks the connected component containing (sx, sy) as
// visited, returns its pixel area, and traces its outer boundary via
// Moore-neighbor tracing starting from the component's topmost-leftmost
// pixel.
func floodAndTrace(m *mask, visited []bool, sx, sy int) (area int, boundary []point) {
	stack := []point{{sx, sy}}
	visited[sy*m.w+sx] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++
		for _, d := range neigh4 {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || nx >= m.w || ny < 0 || ny >= m.h {
				continue
			}
			ni := ny*m.w + nx
			if m.pix[ni] == 0 || visited[ni] {
				continue
			}
			visited[ni] = true
			stack = append(stack, point{nx, ny})
		}
	}
	return area, traceBoundary(m, sx, sy)
}

// moore8 lists the 8 neighbor offsets in clockwise order starting from
// the west direction, the step table for Moore-neighbor tracing.
var moore8 = [8]point{{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}}

// traceBoundary walks the outer boundary of the foreground component
// touching (sx, sy) using Moore-neighbor tracing, stopping the first
// time the trace returns to the start pixel, and returns it as an
// ordered polygon.
func traceBoundary(m *mask, sx, sy int) []point {
	start := point{sx, sy}
	boundary := []point{start}
	backtrack := 0 // index into moore8 of the direction we arrived from

	cur := start
	dir := backtrack
	for i := 0; i < m.w*m.h*8; i++ {
		found := false
		for k := 0; k < 8; k++ {
			d := moore8[(dir+k)%8]
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if nx < 0 || nx >= m.w || ny < 0 || ny >= m.h {
				continue
			}
			if m.pix[ny*m.w+nx] != 0 {
				cur = point{nx, ny}
				dir = (dir + k + 5) % 8 // turn back two steps, as Moore tracing requires
				found = true
				break
			}
		}
		if !found {
			break
		}
		if cur == start && len(boundary) > 1 {
			break
		}
		boundary = append(boundary, cur)
	}
	return boundary
}
