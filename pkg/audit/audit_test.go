package audit

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)
	return logger, &buf
}

func TestLogAuthenticateSuccess(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Log(AuthenticateEvent{
		SubjectID: "user-1",
		Email:     "alice@example.com",
		ClientIP:  "10.0.0.1",
		Scheme:    "password",
		Success:   true,
	})

	line := buf.String()

	// PRI = facility 10 * 8 + severity 6 (info)
	if !strings.HasPrefix(line, "<86>1 ") {
		t.Errorf("unexpected PRI/version prefix: %s", line)
	}
	if !strings.Contains(line, "gatehouse") {
		t.Errorf("missing appname: %s", line)
	}
	if !strings.Contains(line, " authn ") {
		t.Errorf("missing msgid: %s", line)
	}
	if !strings.Contains(line, `scheme="password"`) {
		t.Errorf("missing scheme sdata: %s", line)
	}
	if !strings.Contains(line, "user-1 successfully authenticated via password") {
		t.Errorf("missing message: %s", line)
	}
}

func TestLogAuthenticateFailureSeverity(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Log(AuthenticateEvent{
		Email:        "alice@example.com",
		ClientIP:     "10.0.0.1",
		Scheme:       "password",
		Success:      false,
		ErrorMessage: "invalid email or password",
	})

	line := buf.String()

	// PRI = facility 10 * 8 + severity 4 (warning)
	if !strings.HasPrefix(line, "<84>1 ") {
		t.Errorf("failure should log at warning severity: %s", line)
	}
	if !strings.Contains(line, "invalid email or password") {
		t.Errorf("missing error detail: %s", line)
	}
}

func TestLogTimestampFormat(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Log(SessionEvent{SubjectID: "user-1", Operation: "issue"})

	// RFC5424 ISO8601 with milliseconds, UTC
	matched, err := regexp.MatchString(
		`^<\d+>1 \d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z `, buf.String())
	if err != nil {
		t.Fatal(err)
	}
	if !matched {
		t.Errorf("timestamp not RFC5424 formatted: %s", buf.String())
	}
}

func TestLogEscapesStructuredData(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Log(AuthenticateEvent{
		SubjectID: `user"with]special\chars`,
		Scheme:    "api_key",
		Success:   true,
	})

	line := buf.String()
	if !strings.Contains(line, `\"`) || !strings.Contains(line, `\]`) || !strings.Contains(line, `\\`) {
		t.Errorf("structured data values not escaped: %s", line)
	}
}

func TestProvisionEventStructuredData(t *testing.T) {
	event := ProvisionEvent{
		SubjectID: "user-9",
		Email:     "new@example.com",
		Role:      "pending",
		ClientIP:  "192.168.1.1",
		Scheme:    "provider",
	}

	sd := event.StructuredData()
	if sd[SDIDSubject]["role"] != "pending" {
		t.Errorf("missing role in sdata: %v", sd)
	}
	if sd[SDIDAction]["operation"] != "provision" {
		t.Errorf("missing operation in sdata: %v", sd)
	}
	if event.Severity() != SeverityNotice {
		t.Errorf("provisioning should log at notice severity")
	}
}

func TestSessionEventMessages(t *testing.T) {
	issue := SessionEvent{SubjectID: "user-1", Operation: "issue"}
	revoke := SessionEvent{SubjectID: "user-1", Operation: "revoke"}

	if got := issue.Message(); got != "issued session for user-1" {
		t.Errorf("unexpected issue message: %s", got)
	}
	if got := revoke.Message(); got != "user-1 signed out" {
		t.Errorf("unexpected revoke message: %s", got)
	}
}

func TestAPIKeyEventMessages(t *testing.T) {
	create := APIKeyEvent{SubjectID: "user-1", Operation: "create", Success: true}
	del := APIKeyEvent{SubjectID: "user-1", Operation: "delete", Success: true}

	if got := create.Message(); got != "user-1 created their API key" {
		t.Errorf("unexpected create message: %s", got)
	}
	if got := del.Message(); got != "user-1 deleted their API key" {
		t.Errorf("unexpected delete message: %s", got)
	}
}
