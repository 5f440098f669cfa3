package weather

import "time"

// SelectWindow returns up to size consecutive points starting at the first
// point whose Time is at or after ref. points must be sorted ascending.
//
// When ref is past every point the window starts at index 0, so a stale
// range still produces data instead of an empty window. The result is shorter
// than size when the range runs out. A size <= 0 selects DefaultWindowSize.
// The returned slice shares its backing array with points.
func SelectWindow(points []HourlyForecastPoint, ref time.Time, size int) []HourlyForecastPoint {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if len(points) == 0 {
		return []HourlyForecastPoint{}
	}

	start := 0
	for i, p := range points {
		if !p.Time.Before(ref) {
			start = i
			break
		}
	}

	end := start + size
	if end > len(points) {
		end = len(points)
	}
	return points[start:end]
}
