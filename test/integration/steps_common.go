package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	client       *http.Client
	response     *http.Response
	responseBody []byte
	apiKeys      map[string]string
	passwords    map[string]string
	bearerToken  string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	jar, _ := cookiejar.New(nil)
	return &StepsContext{
		tc: tc,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		apiKeys:   make(map[string]string),
		passwords: make(map[string]string),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a Gatehouse server is running$`, s.aGatehouseServerIsRunning)
	sc.Step(`^no users exist$`, s.noUsersExist)
	sc.Step(`^a user "([^"]*)" exists with password "([^"]*)"$`, s.aUserExistsWithPassword)
	sc.Step(`^an admin "([^"]*)" exists with password "([^"]*)"$`, s.anAdminExistsWithPassword)

	// Session steps
	sc.Step(`^I sign up as "([^"]*)" with password "([^"]*)"$`, s.iSignUpAs)
	sc.Step(`^I sign in as "([^"]*)" with password "([^"]*)"$`, s.iSignInAs)
	sc.Step(`^I sign in as "([^"]*)" with an incorrect password$`, s.iSignInWithIncorrectPassword)
	sc.Step(`^I sign out$`, s.iSignOut)
	sc.Step(`^I ask who I am$`, s.iAskWhoIAm)

	// API key steps
	sc.Step(`^I create an API key$`, s.iCreateAnAPIKey)
	sc.Step(`^I revoke my API key$`, s.iRevokeMyAPIKey)
	sc.Step(`^I ask who I am using the API key$`, s.iAskWhoIAmUsingTheAPIKey)

	// Admin steps
	sc.Step(`^I list all users$`, s.iListAllUsers)
	sc.Step(`^I set the role of "([^"]*)" to "([^"]*)"$`, s.iSetTheRoleOf)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^I should be signed in as "([^"]*)"$`, s.iShouldBeSignedInAs)
	sc.Step(`^my role should be "([^"]*)"$`, s.myRoleShouldBe)
	sc.Step(`^my authentication scheme should be "([^"]*)"$`, s.myAuthenticationSchemeShouldBe)
	sc.Step(`^the response should list (\d+) users$`, s.theResponseShouldListUsers)
}

// Background steps

func (s *StepsContext) aGatehouseServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) noUsersExist() error {
	return s.tc.DB.Exec(`TRUNCATE TABLE users`).Error
}

func (s *StepsContext) aUserExistsWithPassword(email, password string) error {
	return s.createUser(email, password, "user")
}

func (s *StepsContext) anAdminExistsWithPassword(email, password string) error {
	return s.createUser(email, password, "admin")
}

func (s *StepsContext) createUser(email, password, role string) error {
	s.passwords[email] = password

	// Seed through the signup endpoint so password hashing matches the
	// server's own, then fix the role directly in the database.
	if err := s.iSignUpAs(email, password); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated {
		return fmt.Errorf("seeding user %s failed with status %d: %s", email, s.response.StatusCode, s.responseBody)
	}
	if err := s.iSignOut(); err != nil {
		return err
	}

	return s.tc.DB.Exec(`UPDATE users SET role = ? WHERE email = ?`, role, email).Error
}

// Session steps

func (s *StepsContext) iSignUpAs(email, password string) error {
	s.passwords[email] = password
	return s.postJSON("/signup", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (s *StepsContext) iSignInAs(email, password string) error {
	return s.postJSON("/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (s *StepsContext) iSignInWithIncorrectPassword(email string) error {
	return s.postJSON("/signin", map[string]string{
		"email":    email,
		"password": "definitely-not-" + s.passwords[email],
	})
}

func (s *StepsContext) iSignOut() error {
	return s.do(http.MethodPost, "/signout", nil, "")
}

func (s *StepsContext) iAskWhoIAm() error {
	return s.do(http.MethodGet, "/whoami", nil, "")
}

// API key steps

func (s *StepsContext) iCreateAnAPIKey() error {
	if err := s.do(http.MethodPost, "/api-key", nil, ""); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated {
		return nil
	}

	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse API key response: %w", err)
	}
	s.bearerToken = body.APIKey
	return nil
}

func (s *StepsContext) iRevokeMyAPIKey() error {
	return s.do(http.MethodDelete, "/api-key", nil, "")
}

func (s *StepsContext) iAskWhoIAmUsingTheAPIKey() error {
	if s.bearerToken == "" {
		return fmt.Errorf("no API key captured, create one first")
	}

	// A fresh client without the cookie jar, so only the key authenticates
	req, err := http.NewRequest(http.MethodGet, s.tc.ServerURL+"/whoami", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.bearerToken)

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	return s.capture(resp)
}

// Admin steps

func (s *StepsContext) iListAllUsers() error {
	return s.do(http.MethodGet, "/users", nil, "")
}

func (s *StepsContext) iSetTheRoleOf(email, role string) error {
	var id string
	row := s.tc.RawDB.QueryRow(`SELECT id FROM users WHERE email = $1`, strings.ToLower(email))
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("user %s not found: %w", email, err)
	}

	return s.do(http.MethodPut, "/users/"+id+"/role", map[string]string{"role": role}, "")
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response == nil {
		return fmt.Errorf("no response captured")
	}
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) iShouldBeSignedInAs(email string) error {
	user, err := s.whoamiUser()
	if err != nil {
		return err
	}
	if user.Email != strings.ToLower(email) {
		return fmt.Errorf("expected email %q, got %q", strings.ToLower(email), user.Email)
	}
	return nil
}

func (s *StepsContext) myRoleShouldBe(role string) error {
	user, err := s.whoamiUser()
	if err != nil {
		return err
	}
	if user.Role != role {
		return fmt.Errorf("expected role %q, got %q", role, user.Role)
	}
	return nil
}

func (s *StepsContext) myAuthenticationSchemeShouldBe(scheme string) error {
	var body struct {
		Scheme string `json:"scheme"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse whoami response: %w", err)
	}
	if body.Scheme != scheme {
		return fmt.Errorf("expected scheme %q, got %q", scheme, body.Scheme)
	}
	return nil
}

func (s *StepsContext) theResponseShouldListUsers(count int) error {
	var users []json.RawMessage
	if err := json.Unmarshal(s.responseBody, &users); err != nil {
		return fmt.Errorf("failed to parse user list: %w", err)
	}
	if len(users) != count {
		return fmt.Errorf("expected %d users, got %d", count, len(users))
	}
	return nil
}

// Helpers

type whoamiUserBody struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *StepsContext) whoamiUser() (*whoamiUserBody, error) {
	var body struct {
		User whoamiUserBody `json:"user"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return nil, fmt.Errorf("failed to parse whoami response: %w", err)
	}
	if body.User.Email != "" {
		return &body.User, nil
	}

	// Session endpoints return the user object directly
	var user whoamiUserBody
	if err := json.Unmarshal(s.responseBody, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}
	return &user, nil
}

func (s *StepsContext) postJSON(path string, payload interface{}) error {
	return s.do(http.MethodPost, path, payload, "")
}

func (s *StepsContext) do(method, path string, payload interface{}, bearer string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	return s.capture(resp)
}

func (s *StepsContext) capture(resp *http.Response) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	s.response = resp
	s.responseBody = data
	return nil
}
