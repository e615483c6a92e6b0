package pipeline

import (
	"encoding/json"
	"fmt"
)

// Trigger is the notification payload published when a run row is inserted.
type Trigger struct {
	Op    string `json:"op"`
	RunID string `json:"id"`
	Query string `json:"query"`
}

// IsInsert reports whether the trigger came from a row insert. Other
// operations reach the channel if the trigger function is ever extended;
// the worker only processes inserts.
func (t Trigger) IsInsert() bool {
	return t.Op == "INSERT"
}

// ParseTrigger decodes a notification payload into a Trigger.
func ParseTrigger(payload string) (Trigger, error) {
	var trigger Trigger
	if err := json.Unmarshal([]byte(payload), &trigger); err != nil {
		return Trigger{}, fmt.Errorf("failed to decode trigger payload: %w", err)
	}
	if trigger.RunID == "" {
		return Trigger{}, fmt.Errorf("trigger payload missing run id")
	}
	if trigger.Query == "" {
		return Trigger{}, fmt.Errorf("trigger payload missing query")
	}
	return trigger, nil
}
