package geo

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusM = 6371000.0

// Point 地理坐标点，持久化为 WKT 文本 "POINT(lng lat)"
type Point struct {
	Lat float64
	Lng float64
}

// NewPoint 校验并构造坐标点
func NewPoint(lat, lng float64) (Point, error) {
	if lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("latitude %v out of range [-90,90]", lat)
	}
	if lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("longitude %v out of range [-180,180]", lng)
	}
	return Point{Lat: lat, Lng: lng}, nil
}

func (p Point) String() string {
	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(p.Lng, 'f', -1, 64),
		strconv.FormatFloat(p.Lat, 'f', -1, 64))
}

// Value implements driver.Valuer
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements sql.Scanner
func (p *Point) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into geo.Point", src)
	}
	parsed, err := ParsePoint(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePoint 解析 WKT 文本 "POINT(lng lat)"
func ParsePoint(s string) (Point, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "POINT(") || !strings.HasSuffix(s, ")") {
		return Point{}, fmt.Errorf("malformed point %q", s)
	}
	body := s[strings.Index(s, "(")+1 : len(s)-1]
	parts := strings.Fields(body)
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("malformed point %q", s)
	}
	lng, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("malformed longitude in %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("malformed latitude in %q: %w", s, err)
	}
	return NewPoint(lat, lng)
}

// DistanceMeters 两点间的 haversine 距离（米）
func (p Point) DistanceMeters(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// WithinRadius 是否在 center 半径 radiusM 米以内
func (p Point) WithinRadius(center Point, radiusM float64) bool {
	return p.DistanceMeters(center) <= radiusM
}
