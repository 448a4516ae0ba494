package jobs

import (
	"encoding/json"
	"fmt"
)

// EncodePayload checks that payload matches t and is valid, then marshals it.
func EncodePayload(t JobType, payload any) ([]byte, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed payload for j.Type.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var p any
	switch j.Type {
	case JobSendWelcomeEmail:
		var w WelcomeEmailPayload
		if err := json.Unmarshal(j.Payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		p = w

	case JobSendPasswordChanged:
		var c PasswordChangedPayload
		if err := json.Unmarshal(j.Payload, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		p = c

	default:
		return nil, ErrInvalidJobType
	}

	if err := ValidatePayload(j.Type, p); err != nil {
		return nil, err
	}
	return p, nil
}
