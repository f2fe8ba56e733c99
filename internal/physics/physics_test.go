package physics

import "testing"

func TestIntersectAABB(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"overlap", Rect{0, 0, 10, 10}, Rect{5, 5, 10, 10}, true},
		{"touching edge", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, false},
		{"touching bottom", Rect{0, 0, 10, 10}, Rect{0, 10, 10, 10}, false},
		{"contained", Rect{0, 0, 100, 100}, Rect{40, 40, 5, 5}, true},
		{"apart", Rect{0, 0, 10, 10}, Rect{50, 50, 1, 1}, false},
		{"zero size inside", Rect{0, 0, 10, 10}, Rect{5, 5, 0, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Fatalf("a∩b = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Fatalf("b∩a = %v, want %v (not symmetric)", got, tt.want)
			}
		})
	}
}

func TestIntersectAABBCorners(t *testing.T) {
	if !IntersectAABB(0, 0, 10, 10, 5, 5, 15, 15) {
		t.Fatal("(0,0)-(10,10) and (5,5)-(15,15) should overlap")
	}
	if IntersectAABB(0, 0, 10, 10, 11, 11, 20, 20) {
		t.Fatal("(0,0)-(10,10) and (11,11)-(20,20) should not overlap")
	}
}

func TestInset(t *testing.T) {
	got := Rect{100, 200, 66, 38}.Inset(8, 6)
	want := Rect{108, 206, 50, 26}
	if got != want {
		t.Fatalf("Inset = %+v, want %+v", got, want)
	}
}

func TestContains(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	if !r.Contains(0, 0) || r.Contains(10, 5) || r.Contains(-1, 5) {
		t.Fatal("Contains edge handling is wrong")
	}
}
