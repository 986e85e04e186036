package contract

import "time"

type Persona string

const (
	PersonaPatient Persona = "patient"
	PersonaDoctor  Persona = "doctor"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation. Immutable once appended to a
// session; tool metadata is only populated on intra-turn messages.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool invocation requested by the reasoning engine.
// Arguments is the raw JSON object emitted by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// User is the authenticated principal returned by Login. The password never
// leaves the record store.
type User struct {
	LoginID string `json:"login_id"`
	Type    string `json:"type"`
}

// Slot is one schedulable time range for a doctor. Available flips to false
// exactly once, when a booking consumes it.
type Slot struct {
	ID        int64     `json:"id"`
	DoctorID  string    `json:"doctorid"`
	Start     time.Time `json:"starttime"`
	End       time.Time `json:"endtime"`
	Available bool      `json:"available"`
}

type BookingRequest struct {
	DoctorID     string
	Start        time.Time
	End          time.Time
	PatientName  string
	PatientEmail string
}

type ReportResult struct {
	Report       string `json:"report"`
	NotifyStatus string `json:"slack_status,omitempty"`
}
