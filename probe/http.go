package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
)

// Auth types supported by the HTTP probe.
const (
	// AuthBearer sends a static bearer token.
	AuthBearer = "bearer"
	// AuthBasic sends HTTP basic credentials.
	AuthBasic = "basic"
	// AuthJWT mints a short-lived HS256 token per request.
	AuthJWT = "jwt"
)

// Auth configures request authentication for the HTTP probe.
type Auth struct {
	// Type is one of AuthBearer, AuthBasic or AuthJWT.
	Type string

	// Token is the static token for AuthBearer.
	Token string

	// Username and Password are the credentials for AuthBasic.
	Username string
	Password string

	// Secret is the HS256 signing key for AuthJWT.
	Secret []byte

	// Issuer, Subject and Audience populate the minted claims for AuthJWT.
	Issuer   string
	Subject  string
	Audience string

	// TTL is the lifetime of minted tokens.
	// Default: 1m
	TTL time.Duration
}

// Assertion is a rule evaluated against a JSON response body. Path uses gjson
// syntax; Operator is one of ==, !=, >, <, >=, <=, contains. An empty operator
// means equality.
type Assertion struct {
	Path     string
	Operator string
	Value    any
}

// HTTPConfig configures the HTTP probe.
type HTTPConfig struct {
	// URL is the endpoint to check. Required.
	URL string

	// Method is the HTTP method.
	// Default: GET
	Method string

	// Headers are added to every request.
	Headers map[string]string

	// Body is an optional request body.
	Body string

	// ExpectedStatus is the status code that counts as success.
	// Default: 200
	ExpectedStatus int

	// Assertions are evaluated against the response body after the status
	// check passes.
	Assertions []Assertion

	// ValidateResponse is an optional hook run after the built-in checks.
	// Any error it returns fails the check as a validation failure.
	ValidateResponse func(status int, body []byte) error

	// Auth configures request authentication.
	Auth *Auth

	// Client is the HTTP client used for requests.
	// Default: a shared client that does not follow redirects.
	Client *http.Client
}

// defaultHTTPClient is shared by probes that do not bring their own client.
// Redirects are not followed so the probe sees the status the target itself
// returned. Timeouts come from the attempt context.
var defaultHTTPClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// HTTP probes an HTTP endpoint for an expected status code and optional body
// assertions.
type HTTP struct {
	config HTTPConfig
}

// NewHTTP creates a new HTTP probe.
func NewHTTP(config HTTPConfig) *HTTP {
	// Apply defaults
	if config.Method == "" {
		config.Method = http.MethodGet
	}
	if config.ExpectedStatus == 0 {
		config.ExpectedStatus = http.StatusOK
	}
	if config.Client == nil {
		config.Client = defaultHTTPClient
	}

	return &HTTP{config: config}
}

// Kind returns KindHTTP.
func (p *HTTP) Kind() Kind {
	return KindHTTP
}

// Check performs one HTTP request against the target.
func (p *HTTP) Check(ctx context.Context) (map[string]any, error) {
	if p.config.URL == "" {
		return nil, fmt.Errorf("%w: http probe requires a url", ErrConfiguration)
	}

	var body io.Reader
	if p.config.Body != "" {
		body = strings.NewReader(p.config.Body)
	}

	req, err := http.NewRequestWithContext(ctx, p.config.Method, p.config.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrConfiguration, err)
	}

	for key, value := range p.config.Headers {
		req.Header.Set(key, value)
	}

	if err := p.applyAuth(req); err != nil {
		return nil, err
	}

	resp, err := p.config.Client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	details := map[string]any{
		"status_code":    resp.StatusCode,
		"response_bytes": len(respBody),
	}

	if resp.StatusCode != p.config.ExpectedStatus {
		return details, fmt.Errorf("%w: expected status %d, got %d",
			ErrValidation, p.config.ExpectedStatus, resp.StatusCode)
	}

	for _, assertion := range p.config.Assertions {
		if err := assertion.eval(respBody); err != nil {
			return details, err
		}
	}

	if p.config.ValidateResponse != nil {
		if err := p.config.ValidateResponse(resp.StatusCode, respBody); err != nil {
			return details, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	return details, nil
}

// applyAuth sets the configured authentication on the request.
func (p *HTTP) applyAuth(req *http.Request) error {
	a := p.config.Auth
	if a == nil {
		return nil
	}

	switch strings.ToLower(a.Type) {
	case "":
		return nil

	case AuthBearer:
		if a.Token != "" {
			req.Header.Set("Authorization", "Bearer "+a.Token)
		}
		return nil

	case AuthBasic:
		if a.Username != "" && a.Password != "" {
			req.SetBasicAuth(a.Username, a.Password)
		}
		return nil

	case AuthJWT:
		token, err := a.mint(time.Now())
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil

	default:
		return fmt.Errorf("%w: unknown auth type %q", ErrConfiguration, a.Type)
	}
}

// mint signs a short-lived token for one probe request.
func (a *Auth) mint(now time.Time) (string, error) {
	if len(a.Secret) == 0 {
		return "", fmt.Errorf("%w: jwt auth requires a signing secret", ErrConfiguration)
	}

	ttl := a.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	claims := jwt.RegisteredClaims{
		Issuer:    a.Issuer,
		Subject:   a.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if a.Audience != "" {
		claims.Audience = jwt.ClaimStrings{a.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: signing probe token: %v", ErrConfiguration, err)
	}
	return signed, nil
}

// eval checks the assertion against the response body.
func (a Assertion) eval(body []byte) error {
	value := gjson.GetBytes(body, a.Path)

	if !value.Exists() {
		return fmt.Errorf("%w: json path %q not found in response", ErrValidation, a.Path)
	}

	if !compareJSON(value, a.Operator, a.Value) {
		return fmt.Errorf("%w: assertion %s %s %v failed, got %v",
			ErrValidation, a.Path, a.Operator, a.Value, value.Value())
	}
	return nil
}

// compareJSON compares a gjson result with an expected value using the given
// operator.
func compareJSON(actual gjson.Result, operator string, expected any) bool {
	switch strings.ToLower(operator) {
	case "", "==", "equals":
		return jsonEquals(actual, expected)
	case "!=", "not_equals":
		return !jsonEquals(actual, expected)
	case ">":
		f, ok := toFloat(expected)
		return ok && actual.Float() > f
	case "<":
		f, ok := toFloat(expected)
		return ok && actual.Float() < f
	case ">=":
		f, ok := toFloat(expected)
		return ok && actual.Float() >= f
	case "<=":
		f, ok := toFloat(expected)
		return ok && actual.Float() <= f
	case "contains":
		s, ok := expected.(string)
		return ok && strings.Contains(actual.String(), s)
	default:
		return false
	}
}

func jsonEquals(actual gjson.Result, expected any) bool {
	switch v := expected.(type) {
	case string:
		return actual.String() == v
	case bool:
		return actual.IsBool() && actual.Bool() == v
	case nil:
		return actual.Type == gjson.Null
	default:
		if f, ok := toFloat(expected); ok {
			return actual.Float() == f
		}
		return false
	}
}

// toFloat widens the numeric types that JSON and YAML decoding produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

var _ Probe = (*HTTP)(nil)
