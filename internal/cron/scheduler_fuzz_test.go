package cron

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"
)

func FuzzSchedulerStart(f *testing.F) {
	f.Add("59 23 * * *")
	f.Add("0 4 * * *")
	f.Add("*/5 * * * *")
	f.Add("invalid")
	f.Add("")
	f.Add("60 * * * *")
	f.Add("0 25 * * *")
	f.Add("@daily")

	f.Fuzz(func(t *testing.T, expr string) {
		s := NewScheduler(nil)
		if err := s.RegisterJob(&simpleJob{name: "fuzz", schedule: expr}); err != nil {
			t.Fatalf("RegisterJob: %v", err)
		}
		// Bad expressions must come back as errors, never panics.
		if err := s.Start(); err != nil {
			return
		}
		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	})
}

func FuzzDigestRange(f *testing.F) {
	f.Add(int64(1710084600), true)  // 2024-03-10 15:30 UTC
	f.Add(int64(1711846800), false) // around the spring DST switch
	f.Add(int64(1729990800), true)  // around the autumn DST switch
	f.Add(int64(946684800), false)

	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		f.Fatalf("LoadLocation: %v", err)
	}

	f.Fuzz(func(t *testing.T, unix int64, previous bool) {
		if unix < 946684800 || unix > 4102444800 {
			return
		}
		now := time.Unix(unix, 0)
		window := WindowToday
		if previous {
			window = WindowPreviousDay
		}

		start, end := DigestRange(window, now, loc)
		if end.Before(start) {
			t.Fatalf("DigestRange(%s, %v) = [%v, %v): end before start", window, now, start, end)
		}
		if l := start.In(loc); l.Hour() != 0 || l.Minute() != 0 || l.Second() != 0 {
			t.Fatalf("start %v is not local midnight", l)
		}
		if previous {
			if d := end.Sub(start); d < 23*time.Hour || d > 25*time.Hour {
				t.Fatalf("previous day spans %v", d)
			}
			if now.Before(end) {
				t.Fatalf("previous day ends after now: %v > %v", end, now)
			}
		} else if !end.Equal(now) {
			t.Fatalf("today window ends at %v, want now %v", end, now)
		}
	})
}
