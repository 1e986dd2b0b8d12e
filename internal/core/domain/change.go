package domain

import "encoding/json"

// ChangeOp is the row-level operation carried by a change notification.
type ChangeOp string

const (
	// OpInsert carries the new row in New.
	OpInsert ChangeOp = "INSERT"
	// OpUpdate carries the new row in New.
	OpUpdate ChangeOp = "UPDATE"
	// OpDelete carries identifying fields in Old.
	OpDelete ChangeOp = "DELETE"
)

// ChangeNotification describes a single upstream mutation pushed over realtime.
type ChangeNotification struct {
	Op    ChangeOp        `json:"op"`
	Table string          `json:"table"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
}

// Payload returns the payload relevant to the operation: Old for deletes, New otherwise.
func (n ChangeNotification) Payload() json.RawMessage {
	if n.Op == OpDelete {
		return n.Old
	}
	return n.New
}

// EntityID extracts the id of the affected row. ok is false when the relevant
// payload is missing, is not an object, or holds an id that is not a string
// or fails ValidID. Ids are never trimmed.
func (n ChangeNotification) EntityID() (string, bool) {
	payload := n.Payload()
	if len(payload) == 0 {
		return "", false
	}
	var ident struct {
		ID *string `json:"id"`
	}
	if err := json.Unmarshal(payload, &ident); err != nil || ident.ID == nil {
		return "", false
	}
	if !ValidID(*ident.ID) {
		return "", false
	}
	return *ident.ID, true
}

// ControlType is the type of an outbound realtime control message.
type ControlType string

const (
	// ControlSubscribe asks the server to start pushing a channel.
	ControlSubscribe ControlType = "subscribe"
	// ControlUnsubscribe asks the server to stop pushing a channel.
	ControlUnsubscribe ControlType = "unsubscribe"
	// ControlPing keeps the connection alive.
	ControlPing ControlType = "ping"
)

// ControlMessage is an outbound realtime message.
type ControlMessage struct {
	Type    ControlType `json:"type"`
	Channel string      `json:"channel,omitempty"`
}
