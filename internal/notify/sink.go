package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sink delivers webhook events to one transport.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
}

// MultiSink fans one event out to every configured transport.
type MultiSink []Sink

func (m MultiSink) Name() string {
	names := make([]string, 0, len(m))
	for _, s := range m {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Routes holds the resolved webhook URL per event family.
type Routes struct {
	Application string
	Interview   string
	Status      string
}

// ResolveRoutes applies the URL fallback chains:
// application = APPLICATION || WEBHOOK,
// interview = INTERVIEW || WEBHOOK || APPLICATION,
// status = STATUS || WEBHOOK || APPLICATION.
func ResolveRoutes(webhook, application, interview, status string) Routes {
	return Routes{
		Application: firstNonEmpty(application, webhook),
		Interview:   firstNonEmpty(interview, webhook, application),
		Status:      firstNonEmpty(status, webhook, application),
	}
}

// Empty reports whether no webhook URL is configured.
func (r Routes) Empty() bool {
	return r.Application == "" && r.Interview == "" && r.Status == ""
}

func (r Routes) urlFor(t EventType) string {
	switch t {
	case EventApplicationSubmitted:
		return r.Application
	case EventInterviewScheduled, EventInterviewCompleted:
		return r.Interview
	default:
		return r.Status
	}
}

// HTTPSink POSTs events as JSON to the route for their type.
type HTTPSink struct {
	Routes Routes
	Client *http.Client
}

func NewHTTPSink(routes Routes) *HTTPSink {
	return &HTTPSink{Routes: routes, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *HTTPSink) Name() string { return "webhook" }

func (s *HTTPSink) Publish(ctx context.Context, ev Event) error {
	url := s.Routes.urlFor(ev.Type)
	if url == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-HireMate-Event", string(ev.Type))
	req.Header.Set("X-HireMate-Event-Id", ev.ID)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
