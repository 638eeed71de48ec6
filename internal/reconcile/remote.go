package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrRemoteNotFound is returned for 404 responses.
var ErrRemoteNotFound = errors.New("remote resource not found")

// Remote drives the pipeline through the public API using the automation
// bearer token.
type Remote struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewRemote(baseURL, token string) *Remote {
	return &Remote{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   strings.TrimPrefix(strings.TrimSpace(token), "Bearer "),
		Client:  &http.Client{},
	}
}

type remoteError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *Remote) ListJobs(ctx context.Context) ([]Job, error) {
	var out []Job
	for offset := 0; ; offset += jobPageSize {
		var page struct {
			Items []Job `json:"items"`
		}
		q := url.Values{"limit": {fmt.Sprint(jobPageSize)}, "offset": {fmt.Sprint(offset)}}
		if err := r.do(ctx, http.MethodGet, "/jobs?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < jobPageSize {
			return out, nil
		}
	}
}

func (r *Remote) ListActive(ctx context.Context, jobID string) ([]Application, error) {
	var page struct {
		Items []Application `json:"items"`
	}
	if err := r.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/applications?active=true", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Remote) ScheduleInterview(ctx context.Context, applicationID string) (bool, error) {
	var out struct {
		AlreadyScheduled bool `json:"alreadyScheduled"`
	}
	if err := r.do(ctx, http.MethodPost, "/applications/"+url.PathEscape(applicationID)+"/interview", nil, &out); err != nil {
		return false, err
	}
	return !out.AlreadyScheduled, nil
}

func (r *Remote) InterviewFor(ctx context.Context, applicationID string) (Interview, bool, error) {
	var iv Interview
	err := r.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(applicationID)+"/interview", nil, &iv)
	if errors.Is(err, ErrRemoteNotFound) {
		return Interview{}, false, nil
	}
	if err != nil {
		return Interview{}, false, err
	}
	return iv, true, nil
}

func (r *Remote) Promote(ctx context.Context, applicationID string, finalScore float64, note string) (bool, error) {
	body := map[string]any{"finalScore": finalScore, "note": note}
	var out struct {
		Changed bool `json:"changed"`
	}
	if err := r.do(ctx, http.MethodPost, "/applications/"+url.PathEscape(applicationID)+"/promote", body, &out); err != nil {
		return false, err
	}
	return out.Changed, nil
}

func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrRemoteNotFound)
	}
	if resp.StatusCode >= 300 {
		var e remoteError
		_ = json.Unmarshal(raw, &e)
		return fmt.Errorf("%s %s: status %d %s: %s", method, path, resp.StatusCode, e.Error.Code, e.Error.Message)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

var _ Pipeline = (*Remote)(nil)
