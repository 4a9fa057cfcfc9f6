package metrics

import "time"

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Pass names the two phases of a build.
type Pass string

const (
	PassRegister Pass = "register"
	PassBuild    Pass = "build"
)

// Recorder receives build observations. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObservePassDuration(pass Pass, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	AddArtefacts(builder, flavor string, n int)
	IncBuildOutcome(outcome Outcome)
}

// NoopRecorder discards everything. It is the default when metrics are off.
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(Pass, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)      {}
func (NoopRecorder) AddArtefacts(string, string, int)        {}
func (NoopRecorder) IncBuildOutcome(Outcome)                 {}
