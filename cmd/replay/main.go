// Command replay feeds a JSON-lines GPS sample log and a hazard database
// through the alert engine and prints every alert activation. It drives the
// engine with a clock derived from the sample timestamps, so a drive recorded
// months ago replays with the original cooldown behaviour.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/banshee-data/roadwatch/internal/alert"
	"github.com/banshee-data/roadwatch/internal/config"
	"github.com/banshee-data/roadwatch/internal/db"
	"github.com/banshee-data/roadwatch/internal/engine"
	"github.com/banshee-data/roadwatch/internal/monitoring"
	"github.com/banshee-data/roadwatch/internal/motion"
	"github.com/banshee-data/roadwatch/internal/units"
)

var (
	samplesPath = flag.String("samples", "", "Path to JSON-lines sample log (required)")
	hazardsPath = flag.String("hazards", "", "Path to hazard SQLite database (optional)")
	configPath  = flag.String("config", "", "Path to tuning config JSON (optional)")
	speedUnits  = flag.String("units", units.KPH, "Units for printed speeds (mps, mph, kmph, kph, knots)")
	verbose     = flag.Bool("verbose", false, "Log per-tick engine decisions")
)

// record is one line of the sample log.
type record struct {
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Speed    float64   `json:"speed"` // m/s
	Heading  *float64  `json:"heading,omitempty"`
	Accuracy *float64  `json:"accuracy,omitempty"`
	Time     time.Time `json:"time"`
}

// replayClock follows the sample log's timestamps.
type replayClock struct {
	now time.Time
}

func (c *replayClock) Now() time.Time { return c.now }

// printAnnouncer writes activations to the log.
type printAnnouncer struct{}

func (printAnnouncer) Announce(a alert.Alert, muted bool) {
	suffix := ""
	if muted {
		suffix = " (muted)"
	}
	log.Printf("ALERT [%s] %s%s", a.Category, a.Message, suffix)
}

func main() {
	flag.Parse()
	if *samplesPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q", *speedUnits)
	}
	monitoring.Verbose = *verbose

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		cfg = loaded
	}

	opts := engine.Options{}
	clock := &replayClock{}
	opts.Clock = clock

	if *hazardsPath != "" {
		store, err := db.NewDB(*hazardsPath)
		if err != nil {
			log.Fatalf("failed to open hazard database: %v", err)
		}
		defer store.Close()
		opts.Hazards = store
	}
	opts.Announcer = printAnnouncer{}

	eng := engine.New(cfg, opts)

	count, err := replay(eng, clock, *samplesPath, *speedUnits)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	log.Printf("replayed %d samples", count)
}

// replay streams the log through the engine, advancing the alert tick at 1s
// intervals between samples so cooldown and clear timers behave as they did
// during the original drive.
func replay(eng *engine.Engine, clock *replayClock, path, speedUnits string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open sample log: %w", err)
	}
	defer f.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(f)
	var count int
	var lastTick time.Time

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			return count, fmt.Errorf("bad sample on line %d: %w", count+1, err)
		}

		// Fire the periodic alert check for every elapsed second between
		// samples, mirroring the live 1s tick.
		if !lastTick.IsZero() {
			for tick := lastTick.Add(time.Second); !tick.After(r.Time); tick = tick.Add(time.Second) {
				clock.now = tick
				eng.TickAlerts(tick)
			}
		}
		lastTick = r.Time
		clock.now = r.Time

		eng.HandleSample(ctx, motion.Sample{
			Lat:      r.Lat,
			Lng:      r.Lng,
			Speed:    r.Speed,
			Heading:  r.Heading,
			Accuracy: r.Accuracy,
			Time:     r.Time,
		})
		count++

		state := eng.MotionState()
		monitoring.Debugf("sample %d: speed %.1f %s stationary=%v",
			count, units.FromMPS(state.SmoothedSpeed, speedUnits), speedUnits, state.IsStationary)
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read sample log: %w", err)
	}
	return count, nil
}
