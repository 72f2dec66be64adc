package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Task is the domain model for a chore entry.
// The server owns it; clients only hold a projection.
type Task struct {
	ID        TaskID `json:"id"`
	Title     string `json:"title"`
	Completed Flag   `json:"completed"`
}

// TaskID is the opaque identifier the server assigns.
// On the wire it may be a JSON number or a string.
type TaskID string

func (id TaskID) String() string { return string(id) }

func (id *TaskID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TaskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = TaskID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so the server sees what it sent.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Flag is a completion flag that accepts true/false as well as 1/0.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, "null", `""`:
		*f = false
	default:
		return fmt.Errorf("completed: unexpected value %s", b)
	}
	return nil
}

// Attr renders the flag the way data-completed carries it.
func (f Flag) Attr() string {
	if f {
		return "1"
	}
	return "0"
}

// Int is the 0/1 form the server stores and sends.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}
