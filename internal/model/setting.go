package model

// Setting is a runtime override of a static config default. Settings are
// read fresh from the table on every decision point so admin changes apply
// immediately, including to in-flight requests.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

// Setting keys known to the gate.
const (
	SettingMaxAttempts   = "max_attempts"
	SettingVerifyTimeout = "verify_timeout"
)
