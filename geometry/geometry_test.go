package geometry

import "testing"

func TestDefaultLayoutConstants(t *testing.T) {
	l := Default
	if l.TotalW != 1200 || l.TotalH != 1600 {
		t.Fatalf("canvas size = %dx%d, want 1200x1600", l.TotalW, l.TotalH)
	}
	if l.XL != 500 || l.XR != 700 {
		t.Fatalf("xl/xr = %d/%d, want 500/700", l.XL, l.XR)
	}
	if l.YT != 550 || l.YB != 1050 {
		t.Fatalf("yt/yb = %d/%d, want 550/1050", l.YT, l.YB)
	}
}

func TestProjectedShapes(t *testing.T) {
	l := Default
	if got := l.ProjectedShape(Front); got.X != l.TotalW || got.Y != l.YT {
		t.Fatalf("front shape = %v", got)
	}
	if got := l.ProjectedShape(Left); got.X != l.TotalH || got.Y != l.XL {
		t.Fatalf("left shape = %v", got)
	}
}

func TestQuadrantRectsTileTheCorners(t *testing.T) {
	l := Default
	want := map[Quadrant][4]int{
		FL: {0, 0, l.XL, l.YT},
		FR: {l.XR, 0, l.TotalW, l.YT},
		BL: {0, l.YB, l.XL, l.TotalH},
		BR: {l.XR, l.YB, l.TotalW, l.TotalH},
	}
	for q, w := range want {
		r := l.QuadrantRect(q)
		if r.Min.X != w[0] || r.Min.Y != w[1] || r.Max.X != w[2] || r.Max.Y != w[3] {
			t.Fatalf("quadrant %v rect = %v, want %v", q, r, w)
		}
	}
}

func TestEdgeRectsExcludeCar(t *testing.T) {
	l := Default
	car := l.CarRect()
	for _, c := range []Camera{Front, Back, Left, Right} {
		r := l.EdgeRect(c)
		if r.Overlaps(car) {
			t.Fatalf("edge rect for %v overlaps car rect", c)
		}
	}
}

func TestCornerTilesMatchQuadrantRects(t *testing.T) {
	l := Default
	cases := []struct {
		cam Camera
		q   Quadrant
	}{
		{Front, FL}, {Front, FR},
		{Back, BL}, {Back, BR},
		{Left, FL}, {Left, BL},
		{Right, FR}, {Right, BR},
	}
	for _, c := range cases {
		got := l.Tile(c.cam, c.q)
		want := l.QuadrantRect(c.q)
		if got != want {
			t.Fatalf("Tile(%v, %v) = %v, want %v", c.cam, c.q, got, want)
		}
	}
}

func TestEdgeTilesMatchEdgeRects(t *testing.T) {
	l := Default
	for _, c := range []Camera{Front, Back, Left, Right} {
		if got, want := l.EdgeTile(c), l.EdgeRect(c); got != want {
			t.Fatalf("EdgeTile(%v) = %v, want %v", c, got, want)
		}
	}
}

func TestKeyPointsOrderedAndDistinct(t *testing.T) {
	l := Default
	for _, c := range []Camera{Front, Back, Left, Right} {
		kp := l.KeyPoints(c)
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				if kp[i] == kp[j] {
					t.Fatalf("camera %v has duplicate keypoints: %v", c, kp)
				}
			}
		}
	}
}
