// Package tool defines the fixed capability set each persona may call and
// the executor that dispatches decoded tool requests onto the services.
package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

const (
	ToolDoctorAvailability  = "doctor_availability"
	ToolScheduleAppointment = "schedule_appointment"
	ToolSendEmail           = "send_email"
	ToolAskDatabase         = "ask_database"
	ToolGetTodayInfo        = "get_today_info"
	ToolGenerateReport      = "generate_report"
)

// timeLayout is the wire format for slot boundaries in tool arguments.
const timeLayout = "2006-01-02T15:04:05"

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// Booker runs the booking saga.
type Booker interface {
	Book(ctx context.Context, req contractx.BookingRequest) (string, error)
}

// Asker is the guarded natural-language query tool.
type Asker interface {
	Ask(ctx context.Context, doctorID, question string) (string, error)
}

// SlotLister lists a doctor's open slots.
type SlotLister interface {
	AvailableSlots(ctx context.Context, doctorID string) ([]contractx.Slot, error)
}

// Reporter produces the doctor's schedule summary.
type Reporter interface {
	Generate(ctx context.Context, doctorID string) (string, error)
}

// Deps carries every service a tool may dispatch onto. Personas only reach
// the subset their catalog exposes.
type Deps struct {
	Slots    SlotLister
	Booker   Booker
	Mail     contractx.EmailSender
	Query    Asker
	Reporter Reporter
	Now      func() time.Time
}

// InfosFor returns the tool descriptions exposed to the given persona.
func InfosFor(persona contractx.Persona) []*schema.ToolInfo {
	switch persona {
	case contractx.PersonaPatient:
		return []*schema.ToolInfo{
			{
				Name: ToolDoctorAvailability,
				Desc: "Returns available timeslots for a doctor given their doctorid. Use this when the user asks about a doctor's availability.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"doctorid": {Type: schema.String, Desc: "The doctor's ID", Required: true},
				}),
			},
			{
				Name: ToolScheduleAppointment,
				Desc: "Schedules an appointment with a doctor and sends an email confirmation. Always ask for the patient's name and email first.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"doctorid":      {Type: schema.String, Desc: "The doctor's ID", Required: true},
					"start_time":    {Type: schema.String, Desc: "Start time in format YYYY-MM-DDTHH:MM:SS", Required: true},
					"end_time":      {Type: schema.String, Desc: "End time in format YYYY-MM-DDTHH:MM:SS", Required: true},
					"patient_name":  {Type: schema.String, Desc: "The patient's name", Required: true},
					"patient_email": {Type: schema.String, Desc: "The patient's email address for confirmation", Required: true},
				}),
			},
			{
				Name: ToolSendEmail,
				Desc: "Sends an email to the specified email address.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"to_email": {Type: schema.String, Desc: "Recipient's email address", Required: true},
					"subject":  {Type: schema.String, Desc: "Email subject", Required: true},
					"body":     {Type: schema.String, Desc: "Email body content", Required: true},
				}),
			},
		}
	case contractx.PersonaDoctor:
		return []*schema.ToolInfo{
			{
				Name: ToolAskDatabase,
				Desc: "Answers questions about appointments, patients, and schedules. Use this for ANY question about appointment or schedule data.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"question": {Type: schema.String, Desc: "The question about appointments or patients", Required: true},
				}),
			},
			{
				Name: ToolGetTodayInfo,
				Desc: "Returns the current date and time.",
			},
			{
				Name: ToolGenerateReport,
				Desc: "Generates the doctor's schedule report for today and the coming week.",
			},
		}
	default:
		return nil
	}
}

// NewExecutor binds a persona and an authenticated identity to the service
// dependencies. Identity-scoped tools take the identity from here, never
// from model-provided arguments.
func NewExecutor(persona contractx.Persona, identity string, deps Deps) Executor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	fallback := defaultExecutor(persona)

	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch {
		case persona == contractx.PersonaPatient && tool == ToolDoctorAvailability:
			return executeAvailability(ctx, deps.Slots, tool, args)
		case persona == contractx.PersonaPatient && tool == ToolScheduleAppointment:
			return executeBooking(ctx, deps.Booker, tool, args)
		case persona == contractx.PersonaPatient && tool == ToolSendEmail:
			return executeSendEmail(ctx, deps.Mail, tool, args)
		case persona == contractx.PersonaDoctor && tool == ToolAskDatabase:
			return executeAskDatabase(ctx, deps.Query, identity, tool, args)
		case persona == contractx.PersonaDoctor && tool == ToolGetTodayInfo:
			n := now()
			return contractx.ToolResult{
				Tool:   tool,
				Result: fmt.Sprintf("Today: %s (%s)", n.Format("Monday, January 02, 2006"), n.Format("2006-01-02")),
			}, nil
		case persona == contractx.PersonaDoctor && tool == ToolGenerateReport:
			return executeReport(ctx, deps.Reporter, identity, tool)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func defaultExecutor(persona contractx.Persona) Executor {
	return func(_ context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for persona=%s", tool, persona),
		}, nil
	}
}

func executeAvailability(ctx context.Context, slots SlotLister, tool string, args map[string]any) (contractx.ToolResult, error) {
	if slots == nil {
		return contractx.ToolResult{Tool: tool, Error: "availability lookup is not configured"}, nil
	}
	doctorID, err := stringArg(args, "doctorid")
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	open, err := slots.AvailableSlots(ctx, doctorID)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: fmt.Sprintf("Error fetching timeslots: %v", err)}, nil
	}
	if len(open) == 0 {
		return contractx.ToolResult{
			Tool:   tool,
			Result: fmt.Sprintf("No available timeslots for doctor %s.", doctorID),
		}, nil
	}
	lines := make([]string, 0, len(open))
	for _, slot := range open {
		lines = append(lines, fmt.Sprintf("%s - %s", slot.Start.Format(timeLayout), slot.End.Format(timeLayout)))
	}
	return contractx.ToolResult{Tool: tool, Result: strings.Join(lines, "\n")}, nil
}

func executeBooking(ctx context.Context, booker Booker, tool string, args map[string]any) (contractx.ToolResult, error) {
	if booker == nil {
		return contractx.ToolResult{Tool: tool, Error: "booking is not configured"}, nil
	}
	req := contractx.BookingRequest{}
	var err error
	if req.DoctorID, err = stringArg(args, "doctorid"); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	if req.Start, err = timeArg(args, "start_time"); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	if req.End, err = timeArg(args, "end_time"); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	if req.PatientName, err = stringArg(args, "patient_name"); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	if req.PatientEmail, err = stringArg(args, "patient_email"); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	text, err := booker.Book(ctx, req)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: fmt.Sprintf("Error scheduling appointment: %v", err)}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: text}, nil
}

func executeSendEmail(ctx context.Context, mail contractx.EmailSender, tool string, args map[string]any) (contractx.ToolResult, error) {
	if mail == nil {
		return contractx.ToolResult{Tool: tool, Error: "email is not configured"}, nil
	}
	to, err := stringArg(args, "to_email")
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	subject, err := stringArg(args, "subject")
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	body, err := stringArg(args, "body")
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	messageID, err := mail.Send(ctx, to, subject, body)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: fmt.Sprintf("Error sending email: %v", err)}, nil
	}
	return contractx.ToolResult{
		Tool:   tool,
		Result: fmt.Sprintf("Email sent successfully! Message ID: %s", messageID),
	}, nil
}

func executeAskDatabase(ctx context.Context, asker Asker, identity, tool string, args map[string]any) (contractx.ToolResult, error) {
	if asker == nil {
		return contractx.ToolResult{Tool: tool, Error: "database queries are not configured"}, nil
	}
	question, err := stringArg(args, "question")
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	answer, err := asker.Ask(ctx, identity, question)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: fmt.Sprintf("Error: %v", err)}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: answer}, nil
}

func executeReport(ctx context.Context, reporter Reporter, identity, tool string) (contractx.ToolResult, error) {
	if reporter == nil {
		return contractx.ToolResult{Tool: tool, Error: "reporting is not configured"}, nil
	}
	report, err := reporter.Generate(ctx, identity)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: fmt.Sprintf("Error generating report: %v", err)}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: report}, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func timeArg(args map[string]any, key string) (time.Time, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must use format %s", key, timeLayout)
	}
	return t, nil
}
