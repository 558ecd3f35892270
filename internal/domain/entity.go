package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field length limits for Entity, mirrored by the database schema.
const (
	MaxCodeLength        = 50
	MaxDescriptionLength = 255
)

// Entity-specific validation errors.
var (
	// ErrEntityIDEmpty is returned when an entity ID is empty or nil.
	ErrEntityIDEmpty = fmt.Errorf("%w: entity ID cannot be empty", ErrValidation)

	// ErrEntityCodeEmpty is returned when an entity's code is blank after trimming.
	ErrEntityCodeEmpty = fmt.Errorf("%w: code cannot be blank", ErrValidation)

	// ErrEntityCodeTooLong is returned when an entity's code exceeds MaxCodeLength.
	ErrEntityCodeTooLong = fmt.Errorf(
		"%w: code must not exceed %d characters", ErrValidation, MaxCodeLength)

	// ErrEntityDescriptionEmpty is returned when an entity's description is blank after trimming.
	ErrEntityDescriptionEmpty = fmt.Errorf("%w: description cannot be blank", ErrValidation)

	// ErrEntityDescriptionTooLong is returned when an entity's description
	// exceeds MaxDescriptionLength.
	ErrEntityDescriptionTooLong = fmt.Errorf(
		"%w: description must not exceed %d characters", ErrValidation, MaxDescriptionLength)

	// ErrEntityCreateUserEmpty is returned when no creating username was recorded.
	ErrEntityCreateUserEmpty = fmt.Errorf("%w: create user cannot be empty", ErrValidation)
)

// Entity represents a generic business record with a short code, a
// description and full audit fields. Records are never physically removed:
// deletion flips the Canceled flag and the record stays readable.
type Entity struct {
	ID             uuid.UUID
	Code           string
	Description    string
	CreateDate     time.Time
	CreateUser     string
	LastUpdateDate *time.Time
	LastUpdateUser *string
	Canceled       bool
}

// NewEntity creates a new Entity with the given code and description,
// recorded as created by actor. It trims both fields, generates a new UUID
// and sets the creation audit fields. Returns an error if validation fails.
func NewEntity(code, description, actor string) (*Entity, error) {
	entity := &Entity{
		ID:          uuid.New(),
		Code:        strings.TrimSpace(code),
		Description: strings.TrimSpace(description),
		CreateDate:  time.Now().UTC(),
		CreateUser:  actor,
		Canceled:    false,
	}

	if err := entity.Validate(); err != nil {
		return nil, err
	}

	return entity, nil
}

// Validate checks if the Entity has valid data.
// Returns an error if any field fails validation.
func (e *Entity) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEntityIDEmpty
	}

	if e.Code == "" {
		return ErrEntityCodeEmpty
	}

	// Limits count characters, not bytes, matching the varchar columns.
	if utf8.RuneCountInString(e.Code) > MaxCodeLength {
		return ErrEntityCodeTooLong
	}

	if e.Description == "" {
		return ErrEntityDescriptionEmpty
	}

	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrEntityDescriptionTooLong
	}

	if e.CreateUser == "" {
		return ErrEntityCreateUserEmpty
	}

	return nil
}

// UpdateDetails overwrites the entity's code and description (trimmed) and
// stamps the last-update audit fields with the acting username. The creation
// audit fields and the Canceled flag are left untouched.
// Returns an error if the new values are invalid; the entity is unchanged
// in that case.
func (e *Entity) UpdateDetails(code, description, actor string) error {
	origCode, origDescription := e.Code, e.Description

	e.Code = strings.TrimSpace(code)
	e.Description = strings.TrimSpace(description)

	if err := e.Validate(); err != nil {
		e.Code, e.Description = origCode, origDescription
		return err
	}

	e.stampUpdate(actor)
	return nil
}

// Cancel performs a logical delete: it sets Canceled to true and stamps the
// last-update audit fields. Calling Cancel on an already-canceled entity is
// allowed and re-stamps the audit fields.
func (e *Entity) Cancel(actor string) {
	e.Canceled = true
	e.stampUpdate(actor)
}

// stampUpdate records the current instant and acting username in the
// last-update audit fields.
func (e *Entity) stampUpdate(actor string) {
	now := time.Now().UTC()
	e.LastUpdateDate = &now
	e.LastUpdateUser = &actor
}
