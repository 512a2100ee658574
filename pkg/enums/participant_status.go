package enums

import "fmt"

// ParticipantStatus maps to the participant_status enum in Postgres.
type ParticipantStatus string

const (
	ParticipantStatusActive    ParticipantStatus = "active"
	ParticipantStatusWithdrawn ParticipantStatus = "withdrawn"
)

var validParticipantStatuses = []ParticipantStatus{
	ParticipantStatusActive,
	ParticipantStatusWithdrawn,
}

// IsValid reports whether the value is a known ParticipantStatus.
func (p ParticipantStatus) IsValid() bool {
	for _, candidate := range validParticipantStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseParticipantStatus converts the raw string to ParticipantStatus.
func ParseParticipantStatus(value string) (ParticipantStatus, error) {
	for _, candidate := range validParticipantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid participant status %q", value)
}
