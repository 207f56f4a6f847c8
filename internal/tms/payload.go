package tms

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Schema lists the form fields a request accepts.
type Schema struct {
	Name     string
	Required []string
	Optional []string
}

// BuildPayload encodes fields as a form after checking them against schema.
// Every required field must be present and non-empty; fields outside the
// schema are rejected. Empty optional fields are dropped.
func BuildPayload(schema Schema, fields map[string]string) (url.Values, error) {
	var missing []string
	for _, name := range schema.Required {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s: missing %s", ErrPayload, schema.Name, strings.Join(missing, ", "))
	}

	form := url.Values{}
	for name, value := range fields {
		if !slices.Contains(schema.Required, name) && !slices.Contains(schema.Optional, name) {
			return nil, fmt.Errorf("%w: %s: unknown field %q", ErrPayload, schema.Name, name)
		}
		if value == "" {
			continue
		}
		form.Set(name, value)
	}
	return form, nil
}

func (c *Config) loginSchema() Schema {
	optional := make([]string, 0, len(c.Login.Extra))
	for name := range c.Login.Extra {
		optional = append(optional, name)
	}
	return Schema{
		Name:     "login",
		Required: []string{c.Login.UsernameField, c.Login.PasswordField},
		Optional: optional,
	}
}

func (c *Config) switchGroupSchema() Schema {
	return Schema{
		Name:     "switch_group",
		Required: []string{c.Login.GroupField},
		Optional: c.sessionFields(),
	}
}

func (c *Config) traceSchema() Schema {
	return Schema{
		Name:     "trace",
		Required: []string{c.Trace.ListField},
		Optional: append(c.sessionFields(), c.Login.GroupField),
	}
}

func (c *Config) overrideSchema() Schema {
	return Schema{
		Name:     "override",
		Required: []string{c.Override.OrderIDField, c.Override.StageCodeField, c.Override.DescriptionField},
		Optional: append(c.sessionFields(), c.Login.GroupField),
	}
}

func (c *Config) sessionFields() []string {
	return []string{c.Login.UserIDField, c.Login.TokenField}
}

func (c *Config) withSession(fields map[string]string, sess *Session) map[string]string {
	if sess != nil {
		fields[c.Login.UserIDField] = sess.UserID
		fields[c.Login.TokenField] = sess.Token
	}
	return fields
}
