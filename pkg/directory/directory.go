// Package directory authenticates users against an LDAP directory by
// searching for their entry and binding with their password.
package directory

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	ldap "github.com/go-ldap/ldap/v3"
)

// DefaultTimeout bounds the directory dial.
const DefaultTimeout = 10 * time.Second

// Rejection reasons reported when a directory login fails.
const (
	ReasonServiceBindFailed = "service_bind_failed"
	ReasonUserNotFound      = "user_not_found"
	ReasonUsernameMismatch  = "username_mismatch"
	ReasonNoMailAttribute   = "no_mail_attribute"
	ReasonBindFailed        = "bind_failed"
)

// Config describes the directory and the service account used to search it.
type Config struct {
	// Label names the directory in user-facing errors, e.g. "LDAP Server".
	Label string `yaml:"label"`
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`

	// UsernameAttribute is matched against the login name, e.g. "uid" or
	// "sAMAccountName". MailAttribute must be present on the entry.
	UsernameAttribute string `yaml:"username_attribute"`
	MailAttribute     string `yaml:"mail_attribute"`

	// AppDN and AppPassword are the service account used for the search
	// phase.
	AppDN       string `yaml:"app_dn"`
	AppPassword string `yaml:"app_password"`

	SearchBase string `yaml:"search_base"`
	// SearchFilters is an optional extra filter AND-ed into the lookup,
	// e.g. "(objectClass=person)".
	SearchFilters string `yaml:"search_filters"`

	UseTLS     bool   `yaml:"use_tls"`
	CACertFile string `yaml:"ca_cert_file"`
	Ciphers    string `yaml:"ciphers"`

	Timeout time.Duration `yaml:"timeout"`
}

// Profile is the directory entry for an authenticated user.
type Profile struct {
	Username   string
	Mail       string
	CommonName string
	DN         string
}

// RejectedError indicates the directory was reachable and refused the
// login.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "directory login rejected: " + e.Reason
}

// conn is the slice of *ldap.Conn that Authenticator uses, narrowed for tests.
type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Authenticator performs search-then-bind logins against one directory.
type Authenticator struct {
	cfg  Config
	dial func() (conn, error)
}

// New creates an Authenticator. The TLS material is validated up front so a
// misconfigured directory fails at startup, not at first login.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Host == "" {
		return nil, errors.New("directory host is required")
	}
	if cfg.UsernameAttribute == "" {
		cfg.UsernameAttribute = "uid"
	}
	if cfg.MailAttribute == "" {
		cfg.MailAttribute = "mail"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var tlsConfig *tls.Config
	if cfg.UseTLS {
		var err error
		tlsConfig, err = buildTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
	}

	a := &Authenticator{cfg: cfg}
	a.dial = func() (conn, error) {
		addr := fmt.Sprintf("ldap://%s:%d", cfg.Host, cfg.Port)
		opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout})}
		if tlsConfig != nil {
			addr = fmt.Sprintf("ldaps://%s:%d", cfg.Host, cfg.Port)
			opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
		}
		return ldap.DialURL(addr, opts...)
	}
	return a, nil
}

// buildTLSConfig loads the CA bundle and cipher suites for an ldaps
// connection. Server certificates are always verified.
func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	if cfg.CACertFile != "" {
		pem, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("directory CA certificate contains no certificates")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.Ciphers != "" && !strings.EqualFold(cfg.Ciphers, "ALL") {
		var ids []uint16
		for _, name := range strings.Split(cfg.Ciphers, ",") {
			name = strings.TrimSpace(name)
			for _, suite := range tls.CipherSuites() {
				if strings.EqualFold(suite.Name, name) {
					ids = append(ids, suite.ID)
				}
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("no usable cipher suites in %q", cfg.Ciphers)
		}
		tlsConfig.CipherSuites = ids
	}

	return tlsConfig, nil
}

// Authenticate looks the username up with the service account and then
// binds as the user. Refusals are returned as *RejectedError; connection
// failures are not.
func (a *Authenticator) Authenticate(username, password string) (*Profile, error) {
	c, err := a.dial()
	if err != nil {
		return nil, fmt.Errorf("directory unreachable: %w", err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Bind(a.cfg.AppDN, a.cfg.AppPassword); err != nil {
		return nil, &RejectedError{Reason: ReasonServiceBindFailed}
	}

	entry, err := a.findEntry(c, username)
	if err != nil {
		return nil, err
	}

	// The entry must actually carry the username it was found by.
	foundName := entry.GetAttributeValue(a.cfg.UsernameAttribute)
	if !strings.EqualFold(foundName, username) {
		return nil, &RejectedError{Reason: ReasonUsernameMismatch}
	}

	mail := entry.GetAttributeValue(a.cfg.MailAttribute)
	if mail == "" {
		return nil, &RejectedError{Reason: ReasonNoMailAttribute}
	}

	if err := c.Bind(entry.DN, password); err != nil {
		return nil, &RejectedError{Reason: ReasonBindFailed}
	}

	cn := entry.GetAttributeValue("cn")
	if cn == "" {
		cn = foundName
	}

	return &Profile{
		Username:   strings.ToLower(foundName),
		Mail:       strings.ToLower(mail),
		CommonName: cn,
		DN:         entry.DN,
	}, nil
}

// findEntry searches for the user's entry. The username is escaped before
// interpolation so it cannot alter the filter.
func (a *Authenticator) findEntry(c conn, username string) (*ldap.Entry, error) {
	filter := fmt.Sprintf("(&(%s=%s)%s)",
		a.cfg.UsernameAttribute,
		ldap.EscapeFilter(strings.ToLower(username)),
		a.cfg.SearchFilters,
	)

	result, err := c.Search(ldap.NewSearchRequest(
		a.cfg.SearchBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		[]string{a.cfg.UsernameAttribute, a.cfg.MailAttribute, "cn"},
		nil,
	))
	if err != nil {
		return nil, &RejectedError{Reason: ReasonUserNotFound}
	}
	if len(result.Entries) == 0 {
		return nil, &RejectedError{Reason: ReasonUserNotFound}
	}
	return result.Entries[0], nil
}
