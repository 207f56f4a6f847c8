package tms

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
)

func (s *system) Override(ctx context.Context, sess *Session, rec Record, req OverrideRequest) OverrideOutcome {
	if rec.OrderID == "" {
		return OverrideOutcome{Skipped: true}
	}

	group := rec.GroupID
	if group == "" {
		group = s.cfg.GroupID
	}

	fields := s.cfg.withSession(map[string]string{
		s.cfg.Override.OrderIDField:     rec.OrderID,
		s.cfg.Override.StageCodeField:   strconv.Itoa(req.StageCode),
		s.cfg.Override.DescriptionField: s.stages.Resolve(req),
		s.cfg.Login.GroupField:          group,
	}, sess)

	form, err := BuildPayload(s.cfg.overrideSchema(), fields)
	if err != nil {
		return OverrideOutcome{Error: err.Error()}
	}

	resp, err := s.client.postForm(ctx, "override", s.cfg.Endpoints.Override, form, sess)
	if err != nil {
		s.logger.Warn("override call failed", "pro", rec.PRO, "order_id", rec.OrderID, "error", err)
		return OverrideOutcome{Error: err.Error()}
	}
	if !resp.ok() {
		re := newResponseError(ErrUpstream, "override", resp.status, "", resp.body)
		s.logger.Warn("override rejected", "pro", rec.PRO, "order_id", rec.OrderID, "status", resp.status)
		return OverrideOutcome{Error: fmt.Sprintf("%s: %s", re.Error(), re.Body)}
	}

	if body, err := decodeObject(bytes.TrimSpace(resp.body)); err == nil && rejected(body) {
		msg := upstreamMessage(body)
		s.logger.Warn("override reported failure", "pro", rec.PRO, "order_id", rec.OrderID, "message", msg)
		return OverrideOutcome{Error: msg}
	}

	return OverrideOutcome{OK: true}
}
