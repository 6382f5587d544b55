package controller

import "time"

// Clock is where the controller gets the time and does all of its waiting
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock uses the time package
var RealClock Clock = realClock{}
