package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gatehouse/gatehouse/pkg/directory"
	"github.com/gatehouse/gatehouse/pkg/model"
)

const (
	DefaultConfigPath = "/etc/gatehouse/config"
	ConfigFileName    = "gatehouse.yml"
)

// ValidDefaultRoles is the list of roles assignable to newly provisioned
// users.
var ValidDefaultRoles = []string{"pending", "user", "admin"}

// GatehouseConfig holds all Gatehouse configuration settings
type GatehouseConfig struct {
	// SessionSecret signs session tokens. Required.
	SessionSecret string `yaml:"session_secret" json:"-"`

	// SessionTTL is a duration expression bounding session tokens, e.g.
	// "4h", "30d", "500ms". "-1" and "0" mean tokens never expire.
	SessionTTL string `yaml:"session_ttl" json:"session_ttl"`

	// EnableAuth turns credential checks on. When false every signin
	// resolves to the shared local admin account; intended for
	// single-user or kiosk deployments behind other protection.
	EnableAuth bool `yaml:"enable_auth" json:"enable_auth"`

	// EnableSignup permits new users to register themselves
	EnableSignup bool `yaml:"enable_signup" json:"enable_signup"`

	// DefaultRole is assigned to newly provisioned users after the first
	DefaultRole string `yaml:"default_role" json:"default_role"`

	// EnableAPIKeys permits API-key authentication
	EnableAPIKeys bool `yaml:"enable_api_keys" json:"enable_api_keys"`

	// APIKeyAllowedOperations restricts API keys to the listed request
	// paths. Empty means no restriction.
	APIKeyAllowedOperations []string `yaml:"api_key_allowed_operations" json:"api_key_allowed_operations"`

	// TrustedEmailHeader names the proxy header asserting the caller's
	// email. Empty disables trusted-header authentication.
	TrustedEmailHeader string `yaml:"trusted_email_header" json:"trusted_email_header"`

	// TrustedNameHeader names the proxy header asserting the caller's
	// display name
	TrustedNameHeader string `yaml:"trusted_name_header" json:"trusted_name_header"`

	// ProviderDomain is the external identity provider tenant domain.
	// Empty disables external-provider authentication.
	ProviderDomain       string `yaml:"provider_domain" json:"provider_domain"`
	ProviderAudience     string `yaml:"provider_audience" json:"provider_audience"`
	ProviderClientID     string `yaml:"provider_client_id" json:"provider_client_id"`
	ProviderClientSecret string `yaml:"provider_client_secret" json:"-"`
	ProviderCallbackURL  string `yaml:"provider_callback_url" json:"provider_callback_url"`

	// EnableDirectory permits directory (LDAP) logins
	EnableDirectory bool `yaml:"enable_directory" json:"enable_directory"`

	// Directory holds the directory connection parameters
	Directory directory.Config `yaml:"directory" json:"directory"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *GatehouseConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *GatehouseConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *GatehouseConfig {
	return &GatehouseConfig{
		SessionTTL:              "-1",
		EnableAuth:              true,
		EnableSignup:            true,
		DefaultRole:             "pending",
		EnableAPIKeys:           true,
		APIKeyAllowedOperations: []string{},
		sources:                 make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*GatehouseConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("GATEHOUSE_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig GatehouseConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig, data)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"session_secret", "session_ttl", "enable_auth", "enable_signup", "default_role",
		"enable_api_keys", "api_key_allowed_operations",
		"trusted_email_header", "trusted_name_header",
		"provider_domain", "provider_audience", "provider_client_id",
		"provider_client_secret", "provider_callback_url",
		"enable_directory", "directory",
	}
}

// applyFileConfig merges file values over defaults. The raw bytes are
// consulted so explicit false values in the file are distinguishable from
// absent keys.
func (c *GatehouseConfig) applyFileConfig(file *GatehouseConfig, raw []byte) {
	var present map[string]interface{}
	_ = yaml.Unmarshal(raw, &present)

	set := func(name string, apply func()) {
		if _, ok := present[name]; ok {
			apply()
			c.sources[name] = "file"
		}
	}

	set("session_secret", func() { c.SessionSecret = file.SessionSecret })
	set("session_ttl", func() { c.SessionTTL = file.SessionTTL })
	set("enable_auth", func() { c.EnableAuth = file.EnableAuth })
	set("enable_signup", func() { c.EnableSignup = file.EnableSignup })
	set("default_role", func() { c.DefaultRole = file.DefaultRole })
	set("enable_api_keys", func() { c.EnableAPIKeys = file.EnableAPIKeys })
	set("api_key_allowed_operations", func() { c.APIKeyAllowedOperations = file.APIKeyAllowedOperations })
	set("trusted_email_header", func() { c.TrustedEmailHeader = file.TrustedEmailHeader })
	set("trusted_name_header", func() { c.TrustedNameHeader = file.TrustedNameHeader })
	set("provider_domain", func() { c.ProviderDomain = file.ProviderDomain })
	set("provider_audience", func() { c.ProviderAudience = file.ProviderAudience })
	set("provider_client_id", func() { c.ProviderClientID = file.ProviderClientID })
	set("provider_client_secret", func() { c.ProviderClientSecret = file.ProviderClientSecret })
	set("provider_callback_url", func() { c.ProviderCallbackURL = file.ProviderCallbackURL })
	set("enable_directory", func() { c.EnableDirectory = file.EnableDirectory })
	set("directory", func() { c.Directory = file.Directory })
}

func (c *GatehouseConfig) applyEnvConfig() {
	setString := func(env, name string, target *string) {
		if val := os.Getenv(env); val != "" {
			*target = val
			c.sources[name] = "environment"
		}
	}
	setBool := func(env, name string, target *bool) {
		if val := os.Getenv(env); val != "" {
			*target = val == "true" || val == "1"
			c.sources[name] = "environment"
		}
	}

	setString("GATEHOUSE_SESSION_SECRET", "session_secret", &c.SessionSecret)
	setString("GATEHOUSE_SESSION_TTL", "session_ttl", &c.SessionTTL)
	setBool("GATEHOUSE_ENABLE_AUTH", "enable_auth", &c.EnableAuth)
	setBool("GATEHOUSE_ENABLE_SIGNUP", "enable_signup", &c.EnableSignup)
	setString("GATEHOUSE_DEFAULT_ROLE", "default_role", &c.DefaultRole)
	setBool("GATEHOUSE_ENABLE_API_KEYS", "enable_api_keys", &c.EnableAPIKeys)
	if val := os.Getenv("GATEHOUSE_API_KEY_ALLOWED_OPERATIONS"); val != "" {
		c.APIKeyAllowedOperations = splitAndTrim(val)
		c.sources["api_key_allowed_operations"] = "environment"
	}
	setString("GATEHOUSE_TRUSTED_EMAIL_HEADER", "trusted_email_header", &c.TrustedEmailHeader)
	setString("GATEHOUSE_TRUSTED_NAME_HEADER", "trusted_name_header", &c.TrustedNameHeader)
	setString("GATEHOUSE_PROVIDER_DOMAIN", "provider_domain", &c.ProviderDomain)
	setString("GATEHOUSE_PROVIDER_AUDIENCE", "provider_audience", &c.ProviderAudience)
	setString("GATEHOUSE_PROVIDER_CLIENT_ID", "provider_client_id", &c.ProviderClientID)
	setString("GATEHOUSE_PROVIDER_CLIENT_SECRET", "provider_client_secret", &c.ProviderClientSecret)
	setString("GATEHOUSE_PROVIDER_CALLBACK_URL", "provider_callback_url", &c.ProviderCallbackURL)
	setBool("GATEHOUSE_ENABLE_DIRECTORY", "enable_directory", &c.EnableDirectory)
	setString("GATEHOUSE_DIRECTORY_HOST", "directory", &c.Directory.Host)
	setString("GATEHOUSE_DIRECTORY_APP_PASSWORD", "directory", &c.Directory.AppPassword)
}

// ConfigFilePath returns the path to the config file
func (c *GatehouseConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *GatehouseConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// ttlPattern accepts "-1", "0", or a signed decimal with a unit.
var ttlPattern = regexp.MustCompile(`^(-1|0|(-?\d+(\.\d+)?)(ms|s|m|h|d|w))$`)

// ParseTTL parses a session TTL expression into a duration. "-1" and "0"
// yield zero, meaning tokens never expire. The d and w units are not
// understood by time.ParseDuration and are handled here.
func ParseTTL(expr string) (time.Duration, error) {
	m := ttlPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return 0, fmt.Errorf("invalid ttl expression: %q", expr)
	}
	if m[1] == "-1" || m[1] == "0" {
		return 0, nil
	}

	value, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl expression: %q", expr)
	}

	var unit time.Duration
	switch m[4] {
	case "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}

	return time.Duration(value * float64(unit)), nil
}

// SessionTTLDuration returns the parsed session TTL.
func (c *GatehouseConfig) SessionTTLDuration() (time.Duration, error) {
	return ParseTTL(c.SessionTTL)
}

// ParsedDefaultRole returns the configured default role.
func (c *GatehouseConfig) ParsedDefaultRole() (model.Role, error) {
	return model.RoleString(c.DefaultRole)
}

// ProviderEnabled reports whether external-provider authentication is
// configured.
func (c *GatehouseConfig) ProviderEnabled() bool {
	return c.ProviderDomain != ""
}

// TrustedHeaderEnabled reports whether trusted-header authentication is
// configured.
func (c *GatehouseConfig) TrustedHeaderEnabled() bool {
	return c.TrustedEmailHeader != ""
}

// Validate validates the configuration
func (c *GatehouseConfig) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("session_secret is required")
	}

	if _, err := ParseTTL(c.SessionTTL); err != nil {
		return err
	}

	if _, err := model.RoleString(c.DefaultRole); err != nil {
		return fmt.Errorf("invalid default_role: %s (valid: %s)",
			c.DefaultRole, strings.Join(ValidDefaultRoles, ", "))
	}

	if c.ProviderEnabled() && c.ProviderAudience == "" {
		return fmt.Errorf("provider_audience is required when provider_domain is set")
	}

	if c.EnableDirectory && c.Directory.Host == "" {
		return fmt.Errorf("directory.host is required when enable_directory is set")
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *GatehouseConfig) Attributes() []Attribute {
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return "(redacted)"
	}
	return []Attribute{
		{Name: "session_secret", Value: redact(c.SessionSecret), Source: c.Source("session_secret")},
		{Name: "session_ttl", Value: c.SessionTTL, Source: c.Source("session_ttl")},
		{Name: "enable_auth", Value: strconv.FormatBool(c.EnableAuth), Source: c.Source("enable_auth")},
		{Name: "enable_signup", Value: strconv.FormatBool(c.EnableSignup), Source: c.Source("enable_signup")},
		{Name: "default_role", Value: c.DefaultRole, Source: c.Source("default_role")},
		{Name: "enable_api_keys", Value: strconv.FormatBool(c.EnableAPIKeys), Source: c.Source("enable_api_keys")},
		{Name: "api_key_allowed_operations", Value: strings.Join(c.APIKeyAllowedOperations, ","), Source: c.Source("api_key_allowed_operations")},
		{Name: "trusted_email_header", Value: c.TrustedEmailHeader, Source: c.Source("trusted_email_header")},
		{Name: "trusted_name_header", Value: c.TrustedNameHeader, Source: c.Source("trusted_name_header")},
		{Name: "provider_domain", Value: c.ProviderDomain, Source: c.Source("provider_domain")},
		{Name: "provider_audience", Value: c.ProviderAudience, Source: c.Source("provider_audience")},
		{Name: "provider_client_id", Value: c.ProviderClientID, Source: c.Source("provider_client_id")},
		{Name: "provider_client_secret", Value: redact(c.ProviderClientSecret), Source: c.Source("provider_client_secret")},
		{Name: "provider_callback_url", Value: c.ProviderCallbackURL, Source: c.Source("provider_callback_url")},
		{Name: "enable_directory", Value: strconv.FormatBool(c.EnableDirectory), Source: c.Source("enable_directory")},
		{Name: "directory", Value: c.Directory.Host, Source: c.Source("directory")},
	}
}

// FormatText returns a text representation of the configuration
func (c *GatehouseConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *GatehouseConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
