package gps

import (
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "23/03/94"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}

// Update parses one NMEA line into f. It reports whether f changed; lines
// that are not RMC sentences are ignored.
func (f *Fix) Update(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return false, err
	}
	if sentence.DataType() != nmea.TypeRMC {
		return false, nil
	}

	m := sentence.(nmea.RMC)
	f.Time = m.Time.String()
	f.Date = m.Date.String()
	f.Latitude = m.Latitude
	f.Longitude = m.Longitude
	f.SpeedKnots = m.Speed
	f.CourseDeg = m.Course
	f.Validity = string(m.Validity)
	return true, nil
}
