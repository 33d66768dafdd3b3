package audit

import "fmt"

// AuthenticateEvent represents an authentication audit event
type AuthenticateEvent struct {
	SubjectID    string
	Email        string
	ClientIP     string
	Scheme       string // "password", "api_key", "session", "provider", "directory", "trusted_header"
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	who := e.SubjectID
	if who == "" {
		who = e.Email
	}
	if who == "" {
		who = "unknown caller"
	}
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated via %s", who, e.Scheme)
	}
	msg := fmt.Sprintf("%s failed to authenticate via %s", who, e.Scheme)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	sd := map[string]map[string]string{
		SDIDAuth: {
			"scheme": e.Scheme,
			"user":   e.SubjectID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "authenticate",
			"result":    result,
		},
	}
	if e.Email != "" {
		sd[SDIDAuth]["email"] = e.Email
	}
	return sd
}

// ProvisionEvent represents a just-in-time user provisioning audit event
type ProvisionEvent struct {
	SubjectID string
	Email     string
	Role      string
	ClientIP  string
	Scheme    string
}

func (e ProvisionEvent) MessageID() string {
	return "provision"
}

func (e ProvisionEvent) Message() string {
	return fmt.Sprintf("provisioned user %s (%s) with role %s via %s", e.SubjectID, e.Email, e.Role, e.Scheme)
}

func (e ProvisionEvent) Severity() Severity {
	return SeverityNotice
}

func (e ProvisionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ProvisionEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"scheme": e.Scheme,
		},
		SDIDSubject: {
			"user":  e.SubjectID,
			"email": e.Email,
			"role":  e.Role,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "provision",
			"result":    "success",
		},
	}
}

// SessionEvent represents a session issue or revocation audit event
type SessionEvent struct {
	SubjectID string
	ClientIP  string
	Operation string // "issue", "revoke"
}

func (e SessionEvent) MessageID() string {
	return "session"
}

func (e SessionEvent) Message() string {
	switch e.Operation {
	case "revoke":
		return fmt.Sprintf("%s signed out", e.SubjectID)
	default:
		return fmt.Sprintf("issued session for %s", e.SubjectID)
	}
}

func (e SessionEvent) Severity() Severity {
	return SeverityInfo
}

func (e SessionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e SessionEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSession: {
			"user": e.SubjectID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    "success",
		},
	}
}

// APIKeyEvent represents an API key lifecycle audit event
type APIKeyEvent struct {
	SubjectID    string
	ClientIP     string
	Operation    string // "create", "delete"
	Success      bool
	ErrorMessage string
}

func (e APIKeyEvent) MessageID() string {
	return "api-key"
}

func (e APIKeyEvent) Message() string {
	verb := "created"
	if e.Operation == "delete" {
		verb = "deleted"
	}
	if e.Success {
		return fmt.Sprintf("%s %s their API key", e.SubjectID, verb)
	}
	msg := fmt.Sprintf("%s failed to %s their API key", e.SubjectID, e.Operation)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e APIKeyEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e APIKeyEvent) Facility() int {
	return FacilityAuthPriv
}

func (e APIKeyEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.SubjectID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation + "-api-key",
			"result":    result,
		},
	}
}

// PasswordEvent represents a password change audit event
type PasswordEvent struct {
	SubjectID    string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e PasswordEvent) MessageID() string {
	return "password"
}

func (e PasswordEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s changed their password", e.SubjectID)
	}
	msg := fmt.Sprintf("%s failed to change their password", e.SubjectID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PasswordEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e PasswordEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PasswordEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.SubjectID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "change-password",
			"result":    result,
		},
	}
}

// RoleChangeEvent represents an administrative role change audit event
type RoleChangeEvent struct {
	ActorID   string
	SubjectID string
	NewRole   string
	ClientIP  string
}

func (e RoleChangeEvent) MessageID() string {
	return "role"
}

func (e RoleChangeEvent) Message() string {
	return fmt.Sprintf("%s changed role of %s to %s", e.ActorID, e.SubjectID, e.NewRole)
}

func (e RoleChangeEvent) Severity() Severity {
	return SeverityNotice
}

func (e RoleChangeEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RoleChangeEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorID,
		},
		SDIDSubject: {
			"user": e.SubjectID,
			"role": e.NewRole,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "change-role",
			"result":    "success",
		},
	}
}
