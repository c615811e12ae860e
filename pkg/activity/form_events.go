package activity

import (
	"strings"
	"time"
)

const (
	// VerbValueChanged is emitted after every successful value change.
	VerbValueChanged = "form.value.changed"
	// VerbValidationChanged is emitted when a validation run reports paths
	// whose errors may have changed.
	VerbValidationChanged = "form.validation.changed"
	// VerbValidatorRegistered is emitted for every validator registration.
	VerbValidatorRegistered = "form.validator.registered"

	objectTypeForm = "form"
)

// FormEventInput describes the common fields for form lifecycle events.
type FormEventInput struct {
	ActorID  string
	UserID   string
	TenantID string
	FormID   string
	Channel  string
	Metadata map[string]any
	// Path is the mutated or registered path.
	Path     string
	OldValue any
	NewValue any
	// Paths lists the paths re-notified by a validation run.
	Paths []string
	// Errors lists the messages currently filed anywhere in the form.
	Errors     []string
	OccurredAt time.Time
}

// BuildValueChangedEvent constructs an activity event for a value change.
func BuildValueChangedEvent(input FormEventInput) Event {
	event := buildFormEvent(VerbValueChanged, input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["path"] = input.Path
	if input.OldValue != nil {
		event.Metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		event.Metadata["new_value"] = input.NewValue
	}
	return event
}

// BuildValidationChangedEvent constructs an activity event for a validation run.
func BuildValidationChangedEvent(input FormEventInput) Event {
	event := buildFormEvent(VerbValidationChanged, input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["paths"] = append([]string{}, input.Paths...)
	event.Metadata["errors"] = append([]string{}, input.Errors...)
	event.Metadata["error_count"] = len(input.Errors)
	return event
}

// BuildValidatorRegisteredEvent constructs an activity event for a validator
// registration.
func BuildValidatorRegisteredEvent(input FormEventInput) Event {
	event := buildFormEvent(VerbValidatorRegistered, input)
	if len(input.Paths) > 0 {
		event.Metadata = ensureMetadata(event.Metadata)
		event.Metadata["paths"] = append([]string{}, input.Paths...)
	}
	return event
}

func buildFormEvent(verb string, input FormEventInput) Event {
	objectID := strings.TrimSpace(input.FormID)
	if objectID == "" {
		objectID = objectTypeForm
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectTypeForm,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   cloneMap(input.Metadata),
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
