package generators

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mmrzaf/mockgen/internal/timeutil"
)

// TimeSeriesGenerator places row i at start + i*step, with optional jitter
// in seconds. It needs the row index.
type TimeSeriesGenerator struct {
	Now func() time.Time
}

func (g *TimeSeriesGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	startStr := ctx.String(0)
	stepStr := ctx.String(1)
	if startStr == "" || stepStr == "" {
		return nil, errors.New("time_series requires start and step")
	}

	startTime, err := timeutil.ParseRelativeTime(startStr, g.now())
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}

	stepDuration, err := timeutil.ParseDuration(stepStr)
	if err != nil {
		return nil, fmt.Errorf("invalid step duration: %w", err)
	}

	timestamp := startTime.Add(time.Duration(ctx.RowIndex) * stepDuration)

	if len(ctx.Args) > 2 {
		jitterSeconds, err := ctx.Int(2)
		if err != nil {
			return nil, fmt.Errorf("jitter: %w", err)
		}
		if jitterSeconds > 0 {
			jitter := IntBetween(rng, -jitterSeconds, jitterSeconds)
			timestamp = timestamp.Add(time.Duration(jitter) * time.Second)
		}
	}

	return timestamp.UTC().Format("2006-01-02 15:04:05"), nil
}

func (g *TimeSeriesGenerator) Validate(argc int) error {
	return arity("time_series", argc, 2, 3)
}

func (g *TimeSeriesGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// SequenceGenerator yields start + row index, failing once end is passed.
type SequenceGenerator struct{}

func (g *SequenceGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	start, err := ctx.Int(0)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	v := start + ctx.RowIndex
	if len(ctx.Args) > 1 {
		end, err := ctx.Int(1)
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		if v > end {
			return nil, fmt.Errorf("sequence exhausted: %d exceeds %d", v, end)
		}
	}
	return v, nil
}

func (g *SequenceGenerator) Validate(argc int) error {
	return arity("sequence", argc, 1, 2)
}

// RandomDateGenerator draws a calendar day in [min, max]. Both bounds are
// optional and default to the configured entity floor and ceiling.
type RandomDateGenerator struct {
	Floor   time.Time
	Ceiling time.Time
	Now     func() time.Time
}

func (g *RandomDateGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	lo, hi := g.Floor, g.Ceiling
	var err error
	if s := ctx.String(0); s != "" {
		if lo, err = timeutil.ParseDate(s, now); err != nil {
			return nil, err
		}
	}
	if s := ctx.String(1); s != "" {
		if hi, err = timeutil.ParseDate(s, now); err != nil {
			return nil, err
		}
	}
	if hi.Before(lo) {
		return nil, fmt.Errorf("max date %s is before min date %s", hi.Format("2006-01-02"), lo.Format("2006-01-02"))
	}
	return RandomDay(rng, lo, hi), nil
}

func (g *RandomDateGenerator) Validate(argc int) error {
	return arity("random_date_between", argc, 0, 2)
}

// RandomDay returns a uniformly drawn midnight in [lo, hi].
func RandomDay(rng *rand.Rand, lo, hi time.Time) time.Time {
	days := timeutil.DaysBetween(lo, hi)
	lo = timeutil.Midnight(lo)
	if days <= 0 {
		return lo
	}
	return lo.AddDate(0, 0, rng.Intn(days+1))
}

// CurrentDatetimeGenerator returns one timestamp fixed for the whole run.
type CurrentDatetimeGenerator struct {
	At time.Time
}

func (g *CurrentDatetimeGenerator) Generate(rng *rand.Rand, ctx Context) (interface{}, error) {
	return g.At.Format("2006.01.02 15:04:05"), nil
}

func (g *CurrentDatetimeGenerator) Validate(argc int) error {
	return arity("current_datetime", argc, 0, 0)
}
