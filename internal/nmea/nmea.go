// Package nmea reads NMEA-0183 sentences from a serial GPS receiver and
// produces raw motion samples. Only RMC (recommended minimum) sentences are
// consumed; everything else on the wire is ignored. Malformed or void
// sentences are treated as "no sample", never as a failure.
package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/roadwatch/internal/motion"
	"github.com/banshee-data/roadwatch/internal/units"
)

// ErrNotRMC is returned for valid sentences of a type this package does not
// consume.
var ErrNotRMC = fmt.Errorf("not an RMC sentence")

// ErrVoidFix is returned when the receiver reports no valid fix (status V).
var ErrVoidFix = fmt.Errorf("void fix")

// ParseRMC parses one $__RMC sentence (GP, GN, GL or GA talkers) into a
// sample. The checksum is verified when present.
func ParseRMC(line string) (motion.Sample, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return motion.Sample{}, fmt.Errorf("missing sentence start: %q", line)
	}

	body := line[1:]
	if star := strings.LastIndexByte(body, '*'); star >= 0 {
		want := body[star+1:]
		body = body[:star]
		var sum byte
		for i := 0; i < len(body); i++ {
			sum ^= body[i]
		}
		got, err := strconv.ParseUint(want, 16, 8)
		if err != nil || byte(got) != sum {
			return motion.Sample{}, fmt.Errorf("checksum mismatch: have %02X, sentence says %s", sum, want)
		}
	}

	fields := strings.Split(body, ",")
	if len(fields) < 10 {
		return motion.Sample{}, fmt.Errorf("short sentence: %d fields", len(fields))
	}
	if !strings.HasSuffix(fields[0], "RMC") {
		return motion.Sample{}, ErrNotRMC
	}
	if fields[2] != "A" {
		return motion.Sample{}, ErrVoidFix
	}

	lat, err := parseCoordinate(fields[3], fields[4])
	if err != nil {
		return motion.Sample{}, fmt.Errorf("bad latitude: %w", err)
	}
	lng, err := parseCoordinate(fields[5], fields[6])
	if err != nil {
		return motion.Sample{}, fmt.Errorf("bad longitude: %w", err)
	}

	sample := motion.Sample{Lat: lat, Lng: lng}

	if fields[7] != "" {
		knots, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return motion.Sample{}, fmt.Errorf("bad speed: %w", err)
		}
		sample.Speed = units.ToMPS(knots, units.Knots)
	}

	// Course over ground is routinely absent at low speed.
	if fields[8] != "" {
		course, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return motion.Sample{}, fmt.Errorf("bad course: %w", err)
		}
		sample.Heading = &course
	}

	if ts, err := parseTimestamp(fields[1], fields[9]); err == nil {
		sample.Time = ts
	}

	return sample, nil
}

// parseCoordinate converts the NMEA ddmm.mmmm / dddmm.mmmm form plus its
// hemisphere into signed decimal degrees.
func parseCoordinate(value, hemisphere string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	dot := strings.IndexByte(value, '.')
	if dot < 3 {
		return 0, fmt.Errorf("malformed coordinate %q", value)
	}

	degrees, err := strconv.ParseFloat(value[:dot-2], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil {
		return 0, err
	}

	deg := degrees + minutes/60
	switch hemisphere {
	case "N", "E":
		return deg, nil
	case "S", "W":
		return -deg, nil
	}
	return 0, fmt.Errorf("unknown hemisphere %q", hemisphere)
}

// parseTimestamp combines the hhmmss.ss time and ddmmyy date fields.
func parseTimestamp(hms, dmy string) (time.Time, error) {
	if len(hms) < 6 || len(dmy) != 6 {
		return time.Time{}, fmt.Errorf("malformed timestamp %q %q", hms, dmy)
	}

	hour, err1 := strconv.Atoi(hms[0:2])
	minute, err2 := strconv.Atoi(hms[2:4])
	secs, err3 := strconv.ParseFloat(hms[4:], 64)
	day, err4 := strconv.Atoi(dmy[0:2])
	month, err5 := strconv.Atoi(dmy[2:4])
	year, err6 := strconv.Atoi(dmy[4:6])
	for _, err := range []error{err1, err2, err3, err4, err5, err6} {
		if err != nil {
			return time.Time{}, err
		}
	}

	sec := int(secs)
	nsec := int((secs - float64(sec)) * 1e9)
	return time.Date(2000+year, time.Month(month), day, hour, minute, sec, nsec, time.UTC), nil
}
