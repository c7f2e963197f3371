package geo

import (
	"math"
	"testing"
)

func TestPointRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"origin", 0, 0},
		{"tokyo", 35.6895, 139.6917},
		{"negative", -33.8688, -70.6693},
		{"edges", 90, 180},
		{"precise", 35.68950123456, 139.69171987654},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPoint(tc.lat, tc.lng)
			if err != nil {
				t.Fatalf("NewPoint: %v", err)
			}
			v, err := p.Value()
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			var back Point
			if err := back.Scan(v); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if math.Abs(back.Lat-tc.lat) > 1e-9 || math.Abs(back.Lng-tc.lng) > 1e-9 {
				t.Errorf("round trip changed point: got (%v,%v), want (%v,%v)",
					back.Lat, back.Lng, tc.lat, tc.lng)
			}
		})
	}
}

func TestNewPointValidation(t *testing.T) {
	if _, err := NewPoint(91, 0); err == nil {
		t.Error("expected error for latitude 91")
	}
	if _, err := NewPoint(-91, 0); err == nil {
		t.Error("expected error for latitude -91")
	}
	if _, err := NewPoint(0, 181); err == nil {
		t.Error("expected error for longitude 181")
	}
	if _, err := NewPoint(0, -181); err == nil {
		t.Error("expected error for longitude -181")
	}
}

func TestParsePointMalformed(t *testing.T) {
	for _, s := range []string{"", "POINT()", "POINT(1)", "POINT(1 2 3)", "LINESTRING(1 2)", "POINT(x y)"} {
		if _, err := ParsePoint(s); err == nil {
			t.Errorf("expected parse error for %q", s)
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	a := Point{Lat: 35.6895, Lng: 139.6917}

	if d := a.DistanceMeters(a); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	// 约 0.00045 度纬度 ≈ 50 米
	b := Point{Lat: a.Lat + 0.00045, Lng: a.Lng}
	d := a.DistanceMeters(b)
	if d < 45 || d > 55 {
		t.Errorf("distance = %v, want ~50m", d)
	}

	if !b.WithinRadius(a, 60) {
		t.Error("expected b within 60m of a")
	}
	if b.WithinRadius(a, 40) {
		t.Error("expected b outside 40m of a")
	}
}
