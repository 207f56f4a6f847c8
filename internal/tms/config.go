package tms

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"
)

// List encodings for the trace identifier field.
const (
	ListEncodingNewline = "newline"
	ListEncodingJSON    = "json"
)

// Config holds the upstream TMS contract: where to reach it, who to log in as,
// and the field names each endpoint expects. Field names are the upstream's
// contract and vary across deployments, so every one is configurable.
type Config struct {
	BaseURL        string         `toml:"base_url"`
	Username       string         `toml:"username"`
	Password       string         `toml:"password"`
	GroupID        string         `toml:"group_id"`
	RequestTimeout string         `toml:"request_timeout"`
	RefererPath    string         `toml:"referer_path"`
	Endpoints      EndpointConfig `toml:"endpoints"`
	Login          LoginConfig    `toml:"login"`
	Trace          TraceConfig    `toml:"trace"`
	Override       OverrideConfig `toml:"override"`
	Stages         StagesConfig   `toml:"stages"`
}

// EndpointConfig holds upstream paths relative to BaseURL.
type EndpointConfig struct {
	Login       string `toml:"login"`
	SwitchGroup string `toml:"switch_group"`
	Trace       string `toml:"trace"`
	Override    string `toml:"override"`
}

// LoginConfig names the login form fields and the session fields read back
// from the login response. UserIDField and TokenField are also sent with every
// authenticated request.
type LoginConfig struct {
	UsernameField string            `toml:"username_field"`
	PasswordField string            `toml:"password_field"`
	UserIDField   string            `toml:"user_id_field"`
	TokenField    string            `toml:"token_field"`
	GroupField    string            `toml:"group_field"`
	Extra         map[string]string `toml:"extra"`
}

// TraceConfig describes the batch trace request and its row shape.
type TraceConfig struct {
	ListField    string            `toml:"list_field"`
	ListEncoding string            `toml:"list_encoding"`
	EmptyMarkers []string          `toml:"empty_markers"`
	StatusCodes  map[string]string `toml:"status_codes"`
	Rows         RowMapping        `toml:"rows"`
}

// RowMapping names the upstream row fields decoded into a Record.
type RowMapping struct {
	PRO        string `toml:"pro"`
	Stage      string `toml:"stage"`
	Substatus  string `toml:"substatus"`
	OrderID    string `toml:"order_id"`
	Location   string `toml:"location"`
	Pickup     string `toml:"pickup"`
	GroupID    string `toml:"group_id"`
	StatusCode string `toml:"status_code"`
}

// OverrideConfig names the stage override form fields.
type OverrideConfig struct {
	OrderIDField     string `toml:"order_id_field"`
	StageCodeField   string `toml:"stage_code_field"`
	DescriptionField string `toml:"description_field"`
}

// StagesConfig controls target stage derivation. Table keys are decimal stage codes.
type StagesConfig struct {
	Fallback []string          `toml:"fallback"`
	Table    map[string]string `toml:"table"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL        string
	Username       string
	Password       string
	GroupID        string
	RequestTimeout string
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Maps and slices replace rather than combine.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.GroupID != "" {
		c.GroupID = overlay.GroupID
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.RefererPath != "" {
		c.RefererPath = overlay.RefererPath
	}

	mergeString(&c.Endpoints.Login, overlay.Endpoints.Login)
	mergeString(&c.Endpoints.SwitchGroup, overlay.Endpoints.SwitchGroup)
	mergeString(&c.Endpoints.Trace, overlay.Endpoints.Trace)
	mergeString(&c.Endpoints.Override, overlay.Endpoints.Override)

	mergeString(&c.Login.UsernameField, overlay.Login.UsernameField)
	mergeString(&c.Login.PasswordField, overlay.Login.PasswordField)
	mergeString(&c.Login.UserIDField, overlay.Login.UserIDField)
	mergeString(&c.Login.TokenField, overlay.Login.TokenField)
	mergeString(&c.Login.GroupField, overlay.Login.GroupField)
	if len(overlay.Login.Extra) > 0 {
		c.Login.Extra = maps.Clone(overlay.Login.Extra)
	}

	mergeString(&c.Trace.ListField, overlay.Trace.ListField)
	mergeString(&c.Trace.ListEncoding, overlay.Trace.ListEncoding)
	if len(overlay.Trace.EmptyMarkers) > 0 {
		c.Trace.EmptyMarkers = slices.Clone(overlay.Trace.EmptyMarkers)
	}
	if len(overlay.Trace.StatusCodes) > 0 {
		c.Trace.StatusCodes = maps.Clone(overlay.Trace.StatusCodes)
	}
	mergeString(&c.Trace.Rows.PRO, overlay.Trace.Rows.PRO)
	mergeString(&c.Trace.Rows.Stage, overlay.Trace.Rows.Stage)
	mergeString(&c.Trace.Rows.Substatus, overlay.Trace.Rows.Substatus)
	mergeString(&c.Trace.Rows.OrderID, overlay.Trace.Rows.OrderID)
	mergeString(&c.Trace.Rows.Location, overlay.Trace.Rows.Location)
	mergeString(&c.Trace.Rows.Pickup, overlay.Trace.Rows.Pickup)
	mergeString(&c.Trace.Rows.GroupID, overlay.Trace.Rows.GroupID)
	mergeString(&c.Trace.Rows.StatusCode, overlay.Trace.Rows.StatusCode)

	mergeString(&c.Override.OrderIDField, overlay.Override.OrderIDField)
	mergeString(&c.Override.StageCodeField, overlay.Override.StageCodeField)
	mergeString(&c.Override.DescriptionField, overlay.Override.DescriptionField)

	if len(overlay.Stages.Fallback) > 0 {
		c.Stages.Fallback = slices.Clone(overlay.Stages.Fallback)
	}
	if len(overlay.Stages.Table) > 0 {
		c.Stages.Table = maps.Clone(overlay.Stages.Table)
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func defaultString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func (c *Config) loadDefaults() {
	defaultString(&c.RequestTimeout, "5s")
	defaultString(&c.RefererPath, "/tms-platform-order/order")

	defaultString(&c.Endpoints.Login, "/write/check_login.php")
	defaultString(&c.Endpoints.SwitchGroup, "/write/switch_group.php")
	defaultString(&c.Endpoints.Trace, "/write_new/search_tms_order_pro_status_v2.php")
	defaultString(&c.Endpoints.Override, "/write_new/update_tms_order_stage.php")

	defaultString(&c.Login.UsernameField, "username")
	defaultString(&c.Login.PasswordField, "password")
	defaultString(&c.Login.UserIDField, "UserID")
	defaultString(&c.Login.TokenField, "UserToken")
	defaultString(&c.Login.GroupField, "group_id")
	if c.Login.Extra == nil {
		c.Login.Extra = map[string]string{
			"UserID":    "null",
			"UserToken": "null",
			"pageName":  "/index.html",
		}
	}

	defaultString(&c.Trace.ListField, "pro_list")
	defaultString(&c.Trace.ListEncoding, ListEncodingNewline)
	if len(c.Trace.EmptyMarkers) == 0 {
		c.Trace.EmptyMarkers = []string{"not found", "no record found", "no such resource", "no records found"}
	}
	// Status-code labels use the stage table spelling so verification
	// against code-only rows compares like with like.
	if len(c.Trace.StatusCodes) == 0 {
		c.Trace.StatusCodes = map[string]string{
			"P": "Picked-Up",
			"O": "Out-For-Delivery",
			"D": "Delivered",
			"C": "Closed",
			"X": "Cancelled",
		}
	}
	defaultString(&c.Trace.Rows.PRO, "tms_order_pro")
	defaultString(&c.Trace.Rows.Stage, "stage")
	defaultString(&c.Trace.Rows.Substatus, "substatus")
	defaultString(&c.Trace.Rows.OrderID, "OrderID")
	defaultString(&c.Trace.Rows.Location, "loc")
	defaultString(&c.Trace.Rows.Pickup, "pu")
	defaultString(&c.Trace.Rows.GroupID, "group_id")
	defaultString(&c.Trace.Rows.StatusCode, "StatusCode")

	defaultString(&c.Override.OrderIDField, "order_id")
	defaultString(&c.Override.StageCodeField, "stage")
	defaultString(&c.Override.DescriptionField, "status_desc")

	if len(c.Stages.Fallback) == 0 {
		c.Stages.Fallback = slices.Clone(DefaultFallback)
	}
	if len(c.Stages.Table) == 0 {
		c.Stages.Table = map[string]string{
			"1": "Open",
			"2": "Dispatched",
			"3": "Picked-Up",
			"4": "Out-For-Delivery",
			"5": "Delivered",
			"6": "Exception",
			"7": "Cancelled",
		}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Username != "" {
		if v := os.Getenv(env.Username); v != "" {
			c.Username = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.GroupID != "" {
		if v := os.Getenv(env.GroupID); v != "" {
			c.GroupID = v
		}
	}
	if env.RequestTimeout != "" {
		if v := os.Getenv(env.RequestTimeout); v != "" {
			c.RequestTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if c.Username == "" {
		return fmt.Errorf("username required")
	}
	if c.Password == "" {
		return fmt.Errorf("password required")
	}

	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	switch c.Trace.ListEncoding {
	case ListEncodingNewline, ListEncodingJSON:
	default:
		return fmt.Errorf("invalid trace.list_encoding: %q", c.Trace.ListEncoding)
	}

	for _, step := range c.Stages.Fallback {
		if !slices.Contains(DefaultFallback, step) {
			return fmt.Errorf("invalid stages.fallback step: %q", step)
		}
	}
	for code := range c.Stages.Table {
		if _, err := strconv.Atoi(code); err != nil {
			return fmt.Errorf("invalid stages.table code: %q", code)
		}
	}
	return nil
}
