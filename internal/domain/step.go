package domain

// Progress stage of the dispatch pipeline.
type Step string

const (
	StepIdle       Step = "IDLE"
	StepGeocoding  Step = "GEOCODING"
	StepOptimizing Step = "OPTIMIZING"
	StepCompleted  Step = "COMPLETED"
)
