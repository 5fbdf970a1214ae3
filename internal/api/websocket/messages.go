package websocket

import (
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeDocumentChanged MessageType = "document_changed"
	MessageTypeExportCompleted MessageType = "export_completed"
	MessageTypeExportFailed    MessageType = "export_failed"
	MessageTypeSystemStatus    MessageType = "system_status"

	messageTypeAuth        = "auth"
	messageTypeAuthSuccess = "auth_success"
	messageTypeAuthFailed  = "auth_failed"
)

type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ExportData describes a finished or failed export run.
type ExportData struct {
	Path     string `json:"path"`
	Shadowed int    `json:"shadowed,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SystemStatusData struct {
	State    string `json:"state"`
	Previous string `json:"previous_state"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewDocumentChangedMessage(change editor.Change) Message {
	msg := NewMessage(MessageTypeDocumentChanged, change)
	msg.Timestamp = change.Timestamp
	return msg
}

func NewExportMessage(path string, shadowed int, err error) Message {
	if err != nil {
		return NewMessage(MessageTypeExportFailed, ExportData{Path: path, Error: err.Error()})
	}
	return NewMessage(MessageTypeExportCompleted, ExportData{Path: path, Shadowed: shadowed})
}

func NewSystemStatusMessage(state, previous string) Message {
	return NewMessage(MessageTypeSystemStatus, SystemStatusData{State: state, Previous: previous})
}
