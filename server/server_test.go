package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

type fakeAPI struct {
	loginUser    *contractx.User
	loginErr     error
	chatReply    string
	chatErr      error
	doctorReply  string
	history      []contractx.Message
	historyErr   error
	reportResult contractx.ReportResult
	reportErr    error

	chatIdentity   string
	reportNotify   *bool
	reportIdentity string
}

func (f *fakeAPI) Login(_ context.Context, loginID, password, typ string) (*contractx.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginUser, nil
}

func (f *fakeAPI) Chat(_ context.Context, identity, message string) (string, error) {
	f.chatIdentity = identity
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

func (f *fakeAPI) ChatAsDoctor(_ context.Context, identity, message string) (string, error) {
	f.chatIdentity = identity
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.doctorReply, nil
}

func (f *fakeAPI) History(_ context.Context, identity string) ([]contractx.Message, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeAPI) GenerateReport(_ context.Context, identity string, notify bool) (contractx.ReportResult, error) {
	f.reportIdentity = identity
	f.reportNotify = &notify
	if f.reportErr != nil {
		return contractx.ReportResult{}, f.reportErr
	}
	return f.reportResult, nil
}

func doRequest(t *testing.T, api *fakeAPI, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	New(api).Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginUser: &contractx.User{LoginID: "doc1", Type: "doctor"}}
	rec := doRequest(t, api, http.MethodPost, "/login", `{"login_id":"doc1","password":"x","type":"doctor"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["login_id"] != "doc1" || body["type"] != "doctor" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginErr: contractx.ErrAuth}
	rec := doRequest(t, api, http.MethodPost, "/login", `{"login_id":"doc1","password":"bad","type":"doctor"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "Invalid credentials" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestChatReturnsResponse(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{chatReply: "Hello!"}
	rec := doRequest(t, api, http.MethodPost, "/chat", `{"login_id":"p1","message":"hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["response"] != "Hello!" {
		t.Fatalf("unexpected body: %v", body)
	}
	if api.chatIdentity != "p1" {
		t.Fatalf("identity not forwarded: %q", api.chatIdentity)
	}
}

func TestChatDoctorRoute(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{doctorReply: "You have 3 appointments."}
	rec := doRequest(t, api, http.MethodPost, "/chat-doctor", `{"login_id":"doc1","message":"how many?"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["response"] != "You have 3 appointments." {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestChatValidationError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{chatErr: contractx.ErrValidation}
	rec := doRequest(t, api, http.MethodPost, "/chat", `{"login_id":"","message":"hi"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestChatInternalErrorIsGenericJSON(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{chatErr: errors.New("session store: connection refused secret=abc")}
	rec := doRequest(t, api, http.MethodPost, "/chat", `{"login_id":"p1","message":"hi"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "internal error" {
		t.Fatalf("internal details must not leak: %v", body)
	}
}

func TestChatMalformedBody(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := doRequest(t, api, http.MethodPost, "/chat", `{"login_id":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{history: []contractx.Message{
		{Role: contractx.RoleUser, Content: "hi"},
		{Role: contractx.RoleAssistant, Content: "hello"},
	}}
	rec := doRequest(t, api, http.MethodGet, "/context/p1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	msgs, ok := body["context"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHistoryEmptyIsArray(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := doRequest(t, api, http.MethodGet, "/context/p1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"context":[]`) {
		t.Fatalf("empty history must encode as an array: %q", rec.Body.String())
	}
}

func TestGenerateReportDefaultsToNotify(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reportResult: contractx.ReportResult{
		Report:       "TODAY'S REPORT",
		NotifyStatus: "Slack notification sent successfully!",
	}}
	rec := doRequest(t, api, http.MethodPost, "/generate-report", `{"login_id":"doc1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["report"] != "TODAY'S REPORT" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["slack_status"] != "Slack notification sent successfully!" {
		t.Fatalf("unexpected body: %v", body)
	}
	if api.reportNotify == nil || !*api.reportNotify {
		t.Fatal("notify should default to true")
	}
	if api.reportIdentity != "doc1" {
		t.Fatalf("identity not forwarded: %q", api.reportIdentity)
	}
}

func TestGenerateReportNotifyDisabled(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{reportResult: contractx.ReportResult{Report: "TODAY'S REPORT"}}
	rec := doRequest(t, api, http.MethodPost, "/generate-report", `{"login_id":"doc1","send_to_slack":false}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if api.reportNotify == nil || *api.reportNotify {
		t.Fatal("notify flag not honored")
	}
}
