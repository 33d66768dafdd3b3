// Package authn resolves request credentials to local user identities.
//
// A resolution walks a strict priority chain: trusted proxy header, API
// key, session token, external provider bearer token. Directory logins are
// a separate entry point reachable only from the dedicated login operation.
// The first applicable scheme wins; the only sanctioned fall-through is
// from an unverifiable session token to the external bearer check, since a
// provider token is not distinguishable from a broken session token until
// verified.
package authn

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse/gatehouse/pkg/credentials"
	"github.com/gatehouse/gatehouse/pkg/directory"
	"github.com/gatehouse/gatehouse/pkg/model"
	"github.com/gatehouse/gatehouse/pkg/provider"
	"github.com/gatehouse/gatehouse/pkg/server/store"
	"github.com/gatehouse/gatehouse/pkg/token"
)

// BootstrapEmail is the shared local admin account used when
// authentication is disabled.
const BootstrapEmail = "admin@localhost"

// Settings are the deployment toggles the pipeline consults. They are
// captured at construction; a config reload builds a new pipeline.
type Settings struct {
	// DisableAuth turns off credential checks entirely. Every signin
	// resolves to the bootstrap admin account, and signup is refused once
	// any account exists.
	DisableAuth bool
	// EnableSignup permits just-in-time provisioning of unknown identities.
	// The very first user of a fresh deployment may always sign up.
	EnableSignup bool
	// EnableAPIKeys permits API-key authentication.
	EnableAPIKeys bool
	// APIKeyAllowedOperations restricts API keys to the listed operations.
	// Empty means no restriction.
	APIKeyAllowedOperations []string
	// DefaultRole is assigned to every provisioned user after the first.
	DefaultRole model.Role
	// SessionTTL bounds issued session tokens. Zero or less means tokens
	// never expire.
	SessionTTL time.Duration
}

// Pipeline arbitrates between the supported credential schemes. The
// provider and directory collaborators are optional; a nil collaborator
// disables its scheme.
type Pipeline struct {
	users     store.UserStore
	codec     *token.Codec
	provider  *provider.Verifier
	directory *directory.Authenticator
	settings  Settings
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	users store.UserStore,
	codec *token.Codec,
	idp *provider.Verifier,
	dir *directory.Authenticator,
	settings Settings,
) *Pipeline {
	return &Pipeline{
		users:     users,
		codec:     codec,
		provider:  idp,
		directory: dir,
		settings:  settings,
	}
}

// Resolve determines the caller's identity from the request credentials.
// operation names the requested operation for API-key allow-listing.
func (p *Pipeline) Resolve(ctx context.Context, creds credentials.RequestCredentials, operation string) (*Outcome, error) {
	if creds.Trusted != nil {
		return p.resolveTrusted(ctx, creds.Trusted)
	}

	if creds.Token == "" {
		return nil, reject(KindInvalidCredential, "no credentials presented")
	}

	if credentials.IsAPIKey(creds.Token) {
		return p.resolveAPIKey(ctx, creds.Token, operation)
	}

	return p.resolveToken(ctx, creds.Token)
}

// resolveTrusted honors an upstream proxy's identity assertion. The proxy
// already authenticated the caller, so no local proof is checked.
func (p *Pipeline) resolveTrusted(ctx context.Context, assertion *credentials.TrustedHeaderAssertion) (*Outcome, error) {
	return p.resolveOrProvision(ctx, assertion.Email, assertion.Name, "", SchemeTrustedHeader)
}

func (p *Pipeline) resolveAPIKey(ctx context.Context, raw, operation string) (*Outcome, error) {
	if !p.settings.EnableAPIKeys {
		return nil, reject(KindInvalidCredential, "api key authentication is disabled")
	}
	if !p.operationAllowed(operation) {
		return nil, reject(KindInvalidCredential, "api key not permitted for this operation")
	}

	user, err := p.users.FindByAPIKey(raw)
	if errors.Is(err, store.ErrNotFound) {
		return nil, reject(KindUnknownSubject, "no user matches this api key")
	}
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	p.touch(user.ID)
	return &Outcome{User: user, Scheme: SchemeAPIKey}, nil
}

func (p *Pipeline) operationAllowed(operation string) bool {
	if len(p.settings.APIKeyAllowedOperations) == 0 {
		return true
	}
	for _, allowed := range p.settings.APIKeyAllowedOperations {
		if allowed == operation {
			return true
		}
	}
	return false
}

// resolveToken tries the session codec first and falls through to the
// external provider only when the token cannot be a session token. An
// expired session token is terminal: it was signed by us, so no other
// scheme can legitimately accept it.
func (p *Pipeline) resolveToken(ctx context.Context, raw string) (*Outcome, error) {
	subject, err := p.codec.Verify(raw)
	if err == nil {
		return p.resolveSubject(ctx, subject)
	}
	if errors.Is(err, token.ErrExpired) {
		return nil, reject(KindExpiredCredential, "session token expired")
	}

	if p.provider == nil {
		return nil, reject(KindInvalidCredential, "invalid session token")
	}
	return p.resolveBearer(ctx, raw)
}

func (p *Pipeline) resolveSubject(ctx context.Context, subject string) (*Outcome, error) {
	user, err := p.users.FindByID(subject)
	if errors.Is(err, store.ErrNotFound) {
		// The subject was deleted after the token was issued.
		return nil, reject(KindUnknownSubject, "session subject no longer exists")
	}
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	p.touch(user.ID)
	return &Outcome{User: user, Scheme: SchemeSession}, nil
}

func (p *Pipeline) resolveBearer(ctx context.Context, raw string) (*Outcome, error) {
	claim, err := p.provider.VerifyBearer(ctx, raw)
	if err != nil {
		var rejected *provider.RejectedError
		switch {
		case errors.As(err, &rejected):
			if rejected.Reason == provider.ReasonExpired {
				return nil, reject(KindExpiredCredential, rejected.Reason)
			}
			return nil, reject(KindInvalidCredential, rejected.Reason)
		default:
			return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
		}
	}

	if claim.Email == "" {
		return nil, reject(KindInvalidCredential, "provider token carries no email claim")
	}
	return p.resolveOrProvision(ctx, claim.Email, claim.DisplayName, claim.ExternalSubject, SchemeProvider)
}

// ProviderCallback resolves or provisions the identity asserted by a
// completed authorization-code exchange. The claim must already be
// verified by the provider collaborator.
func (p *Pipeline) ProviderCallback(ctx context.Context, claim *provider.Claim) (*Outcome, error) {
	if p.provider == nil {
		return nil, reject(KindInvalidCredential, "external provider is not configured")
	}
	if claim.Email == "" {
		return nil, reject(KindInvalidCredential, "provider claim carries no email")
	}
	return p.resolveOrProvision(ctx, claim.Email, claim.DisplayName, claim.ExternalSubject, SchemeProvider)
}

// DirectoryLogin authenticates against the configured directory and
// resolves or provisions the local identity by the entry's mail attribute.
func (p *Pipeline) DirectoryLogin(ctx context.Context, username, password string) (*Outcome, error) {
	if p.directory == nil {
		return nil, reject(KindInvalidCredential, "directory authentication is disabled")
	}

	profile, err := p.directory.Authenticate(username, password)
	if err != nil {
		var rejected *directory.RejectedError
		if errors.As(err, &rejected) {
			return nil, reject(KindInvalidCredential, rejected.Reason)
		}
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	return p.resolveOrProvision(ctx, profile.Mail, profile.CommonName, "", SchemeDirectory)
}

// SignIn checks a password against the stored hash. Unknown email and
// wrong password are deliberately indistinguishable to the caller.
func (p *Pipeline) SignIn(ctx context.Context, email, password string) (*Outcome, error) {
	user, err := p.users.FindByEmail(email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, reject(KindInvalidCredential, "invalid email or password")
	}
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	ok, err := credentials.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, reject(KindInvalidCredential, "invalid email or password")
	}

	p.touch(user.ID)
	return &Outcome{User: user, Scheme: SchemePassword}, nil
}

// BootstrapSignIn resolves the shared local admin account for
// deployments that have authentication turned off. The account is
// provisioned on first use without a password, so it cannot be signed
// into once authentication is turned back on.
func (p *Pipeline) BootstrapSignIn(ctx context.Context) (*Outcome, error) {
	if !p.settings.DisableAuth {
		return nil, reject(KindConfigurationError, "authentication is enabled")
	}

	user, err := p.users.FindByEmail(BootstrapEmail)
	if err == nil {
		p.touch(user.ID)
		return &Outcome{User: user, Scheme: SchemePassword}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	count, err := p.users.Count()
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}
	if count > 0 {
		// Disabling auth on a populated deployment must not mint a second
		// admin behind the existing accounts' backs.
		return nil, reject(KindSignupDisabled, "authentication is disabled and accounts already exist")
	}

	user = &model.User{
		ID:    uuid.NewString(),
		Email: BootstrapEmail,
		Name:  "Admin",
		Role:  model.RoleAdmin,
	}
	if err := p.users.Insert(user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			user, err = p.users.FindByEmail(BootstrapEmail)
			if err != nil {
				return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
			}
			return &Outcome{User: user, Scheme: SchemePassword}, nil
		}
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	return &Outcome{User: user, Scheme: SchemePassword, Provisioned: true}, nil
}

// SignUp registers a password-based user. The first user of a fresh
// deployment may always sign up and is granted the admin role.
func (p *Pipeline) SignUp(ctx context.Context, email, password, name string) (*Outcome, error) {
	count, err := p.users.Count()
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}
	if count > 0 && (p.settings.DisableAuth || !p.settings.EnableSignup) {
		return nil, reject(KindSignupDisabled, "signup is disabled")
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return nil, reject(KindInvalidCredential, "unusable password")
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         p.roleForNewUser(count),
		PasswordHash: &hash,
	}
	if err := p.users.Insert(user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, reject(KindDuplicateEmail, "a user with this email already exists")
		}
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	return &Outcome{User: user, Scheme: SchemePassword, Provisioned: true}, nil
}

// IssueSession mints a session token for the subject.
func (p *Pipeline) IssueSession(subjectID string) (string, error) {
	return p.codec.Issue(subjectID, p.settings.SessionTTL)
}

// VerifySession checks a session token outside the full pipeline.
func (p *Pipeline) VerifySession(raw string) (string, error) {
	subject, err := p.codec.Verify(raw)
	switch {
	case err == nil:
		return subject, nil
	case errors.Is(err, token.ErrExpired):
		return "", reject(KindExpiredCredential, "session token expired")
	default:
		return "", reject(KindInvalidCredential, "invalid session token")
	}
}

// resolveOrProvision looks the identity up by email and provisions it when
// absent and permitted. A lost insert race is resolved by re-fetching the
// winner's record.
func (p *Pipeline) resolveOrProvision(ctx context.Context, email, name, externalSubject, scheme string) (*Outcome, error) {
	user, err := p.users.FindByEmail(email)
	if err == nil {
		if externalSubject != "" && user.OAuthSub == nil {
			if err := p.users.SetExternalSubject(user.ID, externalSubject); err == nil {
				user.OAuthSub = &externalSubject
			}
		}
		p.touch(user.ID)
		return &Outcome{User: user, Scheme: scheme}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	count, err := p.users.Count()
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}
	if count > 0 && !p.settings.EnableSignup {
		return nil, reject(KindSignupDisabled, "signup is disabled")
	}

	user = &model.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  p.roleForNewUser(count),
	}
	if externalSubject != "" {
		user.OAuthSub = &externalSubject
	}

	err = p.users.Insert(user)
	if errors.Is(err, store.ErrDuplicateEmail) {
		// A concurrent first login won the race; use its record.
		user, err = p.users.FindByEmail(email)
		if err != nil {
			return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
		}
		return &Outcome{User: user, Scheme: scheme}, nil
	}
	if err != nil {
		return nil, &Error{Kind: KindProviderUnavailable, Reason: err.Error()}
	}

	return &Outcome{User: user, Scheme: scheme, Provisioned: true}, nil
}

// roleForNewUser implements the first-user bootstrap rule.
func (p *Pipeline) roleForNewUser(existing int64) model.Role {
	if existing == 0 {
		return model.RoleAdmin
	}
	return p.settings.DefaultRole
}

// touch records activity off the critical path. Failures are deliberately
// dropped; activity tracking must never affect a resolution.
func (p *Pipeline) touch(id string) {
	go func() {
		_ = p.users.TouchLastActive(id)
	}()
}
