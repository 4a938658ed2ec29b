package domain

import (
	"github.com/google/uuid"

	dErrors "agristack/pkg/domain-errors"
)

// OperatorID identifies a console operator (inspector, officer or admin).
type OperatorID uuid.UUID

func (id OperatorID) String() string { return uuid.UUID(id).String() }

func (id OperatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseOperatorID parses a non-nil UUID operator identifier.
func ParseOperatorID(s string) (OperatorID, error) {
	parsed, err := parseUUID(s, "operator id")
	return OperatorID(parsed), err
}

// ParseRecordID parses a non-nil record identifier.
func ParseRecordID(s string) (uuid.UUID, error) {
	return parseUUID(s, "record id")
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be nil")
	}
	return parsed, nil
}
