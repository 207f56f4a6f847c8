package tms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
)

func (s *system) Authenticate(ctx context.Context) (*Session, error) {
	fields := maps.Clone(s.cfg.Login.Extra)
	if fields == nil {
		fields = map[string]string{}
	}
	fields[s.cfg.Login.UsernameField] = s.cfg.Username
	fields[s.cfg.Login.PasswordField] = s.cfg.Password

	form, err := BuildPayload(s.cfg.loginSchema(), fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	resp, err := s.client.postForm(ctx, "login", s.cfg.Endpoints.Login, form, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if !resp.ok() {
		return nil, newResponseError(ErrAuth, "login", resp.status, "", resp.body)
	}

	body, err := decodeObject(resp.body)
	if err != nil {
		return nil, newResponseError(ErrAuth, "login", resp.status, "response is not a JSON object", resp.body)
	}
	if rejected(body) {
		return nil, newResponseError(ErrAuth, "login", resp.status, "credentials rejected", resp.body)
	}

	sess := &Session{
		UserID: stringValue(body[s.cfg.Login.UserIDField]),
		Token:  stringValue(body[s.cfg.Login.TokenField]),
		Cookie: joinCookies(resp.cookies),
	}
	if sess.UserID == "" || sess.Token == "" {
		return nil, newResponseError(ErrAuth, "login", resp.status, "session fields missing from response", resp.body)
	}
	if sess.Cookie == "" {
		s.logger.Warn("login response set no session cookie")
	}

	if s.cfg.GroupID != "" {
		sess.GroupSwitched = true
		if err := s.switchGroup(ctx, sess); err != nil {
			sess.GroupSwitchErr = err
			s.logger.Warn("group switch failed, continuing with default group",
				"group_id", s.cfg.GroupID,
				"error", err,
			)
		}
	}

	s.logger.Debug("tms session established", "user_id", sess.UserID)
	return sess, nil
}

func (s *system) switchGroup(ctx context.Context, sess *Session) error {
	fields := s.cfg.withSession(map[string]string{
		s.cfg.Login.GroupField: s.cfg.GroupID,
	}, sess)

	form, err := BuildPayload(s.cfg.switchGroupSchema(), fields)
	if err != nil {
		return err
	}

	resp, err := s.client.postForm(ctx, "switch_group", s.cfg.Endpoints.SwitchGroup, form, sess)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return newResponseError(ErrUpstream, "switch_group", resp.status, "", resp.body)
	}
	return nil
}

// decodeObject parses body as a JSON object, keeping numbers as json.Number.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("null body")
	}
	return obj, nil
}

// rejected reports whether an upstream JSON body signals failure through a
// success or status flag.
func rejected(body map[string]any) bool {
	switch v := body["success"].(type) {
	case bool:
		if !v {
			return true
		}
	case string:
		if v == "false" || v == "0" {
			return true
		}
	case json.Number:
		if v.String() == "0" {
			return true
		}
	}

	if status, ok := body["status"].(string); ok {
		switch status {
		case "error", "fail", "failed", "ERROR", "FAIL", "FAILED":
			return true
		}
	}
	return false
}

func upstreamMessage(body map[string]any) string {
	for _, key := range []string{"message", "error", "msg"} {
		if msg := stringValue(body[key]); msg != "" {
			return msg
		}
	}
	return "upstream reported failure"
}
