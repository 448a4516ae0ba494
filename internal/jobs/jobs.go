package jobs

import (
	"time"

	"github.com/google/uuid"
)

const DefaultMaxAttempts = 5

// Job is one unit of asynchronous work as it travels through the queue.
type Job struct {
	ID          string    `json:"id"`
	Type        JobType   `json:"type"`
	Payload     []byte    `json:"payload"` // raw json
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	LastError   string    `json:"lastError,omitempty"`
	RequestID   string    `json:"requestId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// New encodes payload for t and wraps it in a fresh job.
func New(t JobType, payload any) (Job, error) {
	b, err := EncodePayload(t, payload)
	if err != nil {
		return Job{}, err
	}

	return Job{
		ID:          uuid.NewString(),
		Type:        t,
		Payload:     b,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Exhausted reports whether another attempt would exceed the budget.
func (j Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}
