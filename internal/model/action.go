package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type ActionType string

const (
	ActionCreated    ActionType = "created"
	ActionUpdated    ActionType = "updated"
	ActionArchived   ActionType = "archived"
	ActionUnarchived ActionType = "unarchived"
	ActionMarkedDone ActionType = "marked_done"
	ActionUndo       ActionType = "undo"
	ActionImport     ActionType = "import"
	ActionExport     ActionType = "export"

	// ActionImported is the default type for log entries brought in by an
	// import that did not carry their own action_type.
	ActionImported ActionType = "imported"
)

// IsSystem reports whether t is a household-wide action rather than one
// tied to a single chore.
func (t ActionType) IsSystem() bool {
	return t == ActionImport || t == ActionExport
}

// Details is the typed payload of a log entry. Each action type has its own
// variant; entries of unknown type keep their payload as RawDetails.
type Details interface {
	Action() ActionType
}

// CreatedDetails records the chore as it was inserted.
type CreatedDetails struct {
	ID    int64  `json:"id" yaml:"id"`
	Chore *Chore `json:"chore,omitempty" yaml:"chore,omitempty"`
}

// UpdatedDetails carries the full chore state before the update.
type UpdatedDetails struct {
	PreviousState Chore `json:"previous_state" yaml:"previous_state"`
}

type ArchivedDetails struct {
	ID int64 `json:"id" yaml:"id"`
}

type UnarchivedDetails struct {
	ID int64 `json:"id" yaml:"id"`
}

// MarkedDoneDetails holds what is needed to roll a completion back.
type MarkedDoneDetails struct {
	ChoreID          int64 `json:"chore_id" yaml:"chore_id"`
	NewDueDate       Date  `json:"new_due_date" yaml:"new_due_date"`
	PreviousDueDate  Date  `json:"previous_due_date" yaml:"previous_due_date"`
	PreviousLastDone *Date `json:"previous_last_done" yaml:"previous_last_done"`
}

type UndoDetails struct {
	ActionType ActionType `json:"action_type" yaml:"action_type"`
	Undone     bool       `json:"undone" yaml:"undone"`
	LogID      int64      `json:"log_id" yaml:"log_id"`
}

type ImportedChore struct {
	ID     int64  `json:"id" yaml:"id"`
	Status string `json:"status" yaml:"status"`
}

type ImportDetails struct {
	ImportedChores []ImportedChore `json:"imported_chores" yaml:"imported_chores"`
	ImportedLogs   int             `json:"imported_logs" yaml:"imported_logs"`
}

type ExportDetails struct {
	ChoreCount int `json:"chore_count" yaml:"chore_count"`
	LogCount   int `json:"log_count" yaml:"log_count"`
}

// RawDetails is the payload of an entry whose action type has no typed
// variant, such as entries brought in by an import.
type RawDetails struct {
	Type ActionType
	Raw  json.RawMessage
}

func (CreatedDetails) Action() ActionType    { return ActionCreated }
func (UpdatedDetails) Action() ActionType    { return ActionUpdated }
func (ArchivedDetails) Action() ActionType   { return ActionArchived }
func (UnarchivedDetails) Action() ActionType { return ActionUnarchived }
func (MarkedDoneDetails) Action() ActionType { return ActionMarkedDone }
func (UndoDetails) Action() ActionType       { return ActionUndo }
func (ImportDetails) Action() ActionType     { return ActionImport }
func (ExportDetails) Action() ActionType     { return ActionExport }
func (d RawDetails) Action() ActionType      { return d.Type }

func (d RawDetails) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return []byte("{}"), nil
	}
	return d.Raw, nil
}

func (d RawDetails) MarshalYAML() (any, error) {
	if len(d.Raw) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal(d.Raw, &v); err != nil {
		return string(d.Raw), nil
	}
	return v, nil
}

// LogEntry is one row of the action log.
type LogEntry struct {
	ID         int64      `json:"id" yaml:"id"`
	ChoreID    *int64     `json:"chore_id" yaml:"chore_id"`
	DoneBy     *string    `json:"done_by" yaml:"done_by"`
	DoneAt     time.Time  `json:"done_at" yaml:"done_at"`
	ActionType ActionType `json:"action_type" yaml:"action_type"`
	Details    Details    `json:"action_details" yaml:"action_details"`
}

// EncodeDetails serializes d for storage. A nil Details encodes as {}.
func EncodeDetails(d Details) (string, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode %s details: %w", d.Action(), err)
	}
	return string(b), nil
}

// DecodeDetails parses a stored payload into the variant for t. Unknown
// action types, and payloads that do not fit their variant, come back as
// RawDetails so nothing in the log is ever lost.
func DecodeDetails(t ActionType, raw []byte) Details {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var d Details
	var err error
	switch t {
	case ActionCreated:
		var v CreatedDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionUpdated:
		var v UpdatedDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionArchived:
		var v ArchivedDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionUnarchived:
		var v UnarchivedDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionMarkedDone:
		var v MarkedDoneDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionUndo:
		var v UndoDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionImport:
		var v ImportDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case ActionExport:
		var v ExportDetails
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return RawDetails{Type: t, Raw: append(json.RawMessage(nil), raw...)}
	}
	if err != nil {
		return RawDetails{Type: t, Raw: append(json.RawMessage(nil), raw...)}
	}
	return d
}
