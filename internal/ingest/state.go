package ingest

import "fmt"

// State is a step of the per-document ingestion state machine.
//
//	Start -> FieldsResolved -> IDAssigned -> Stored -> Indexed -> Committed
//
// Any failure moves the document to Aborted and nothing is persisted.
type State uint8

const (
	Start State = iota
	FieldsResolved
	IDAssigned
	Stored
	Indexed
	Committed
	Aborted
)

var stateNames = [...]string{
	Start:          "start",
	FieldsResolved: "fields-resolved",
	IDAssigned:     "id-assigned",
	Stored:         "stored",
	Indexed:        "indexed",
	Committed:      "committed",
	Aborted:        "aborted",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Error reports an aborted ingestion. State is the last state the document
// reached before the failure.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest: aborted after %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
