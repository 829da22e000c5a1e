package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "SIMORQ"
)

// NATS subjects. Outcome events are published per patient:
// simorq.noshow.outcome.<patient_id>
const (
	SubjectOutcomePrefix = "simorq.noshow.outcome"
	SubjectOutcomeAll    = SubjectOutcomePrefix + ".*"
)
