package destination

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wfbench/wfbench/internal/workflow"
)

const (
	defaultSubmitTimeout = 30 * time.Second
	defaultPollTimeout   = 10 * time.Second
	maxBodyReadSize      = 1024 * 1024
	maxErrorBodyBytes    = 1024
)

func init() {
	Register("http", newHTTPDestination)
}

// httpDestination drives a REST-style submission API: POST to create a job,
// GET to observe it. Response fields are addressed with gjson paths so the
// same driver fits differently shaped back-ends.
type httpDestination struct {
	name         string
	client       *http.Client
	baseURL      string
	submitPath   string
	pollPath     string
	headers      map[string]string
	jobIDField   string
	stateField   string
	metricsField string
	okStates     map[string]struct{}
	failedStates map[string]struct{}
}

func newHTTPDestination(name string, settings map[string]interface{}) (Destination, error) {
	baseURL := strings.TrimRight(stringSetting(settings, "base_url", ""), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("destination %q: base_url is required", name)
	}

	submitTimeout, err := durationSetting(settings, "submit_timeout", defaultSubmitTimeout)
	if err != nil {
		return nil, fmt.Errorf("destination %q: %w", name, err)
	}

	d := &httpDestination{
		name:         name,
		client:       &http.Client{Timeout: submitTimeout},
		baseURL:      baseURL,
		submitPath:   stringSetting(settings, "submit_path", "/api/jobs"),
		pollPath:     stringSetting(settings, "poll_path", "/api/jobs/{id}"),
		headers:      map[string]string{},
		jobIDField:   stringSetting(settings, "job_id_field", "id"),
		stateField:   stringSetting(settings, "state_field", "state"),
		metricsField: stringSetting(settings, "metrics_field", "metrics"),
		okStates:     stateSet(settings, "ok_states", []string{"ok", "done", "success", "completed"}),
		failedStates: stateSet(settings, "failed_states", []string{"failed", "error", "cancelled"}),
	}

	if token := stringSetting(settings, "auth_token", ""); token != "" {
		d.headers["Authorization"] = "Bearer " + token
	}
	if hdrs, ok := settings["headers"].(map[string]interface{}); ok {
		for k, v := range hdrs {
			d.headers[k] = fmt.Sprint(v)
		}
	}
	if !strings.Contains(d.pollPath, "{id}") {
		return nil, fmt.Errorf("destination %q: poll_path must contain {id}", name)
	}
	return d, nil
}

func (d *httpDestination) Name() string { return d.name }

func (d *httpDestination) Submit(ctx context.Context, wf workflow.Workflow) (JobHandle, error) {
	body := wf.Payload
	if body == "" {
		body = fmt.Sprintf(`{"workflow":%q}`, wf.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+d.submitPath, strings.NewReader(body))
	if err != nil {
		return JobHandle{}, &SubmitError{Destination: d.name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return JobHandle{}, &SubmitError{Destination: d.name, Err: err}
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if resp.StatusCode >= 400 {
		return JobHandle{}, &SubmitError{
			Destination: d.name,
			Err:         fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodySnippet(payload)),
		}
	}

	id := gjson.GetBytes(payload, d.jobIDField).String()
	if id == "" {
		return JobHandle{}, &SubmitError{
			Destination: d.name,
			Err:         fmt.Errorf("response carries no job id at %q", d.jobIDField),
		}
	}
	return JobHandle{ID: id, Destination: d.name}, nil
}

func (d *httpDestination) Poll(ctx context.Context, handle JobHandle) (PollResult, error) {
	url := d.baseURL + strings.ReplaceAll(d.pollPath, "{id}", handle.ID)
	ctx, cancel := context.WithTimeout(ctx, defaultPollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PollResult{}, &PollError{Destination: d.name, Err: err}
	}
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return PollResult{}, &PollError{Destination: d.name, Err: err}
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	if resp.StatusCode >= 400 {
		return PollResult{}, &PollError{
			Destination: d.name,
			Err:         fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodySnippet(payload)),
		}
	}

	state := strings.ToLower(gjson.GetBytes(payload, d.stateField).String())
	result := PollResult{State: StatePending}
	switch {
	case state == "":
		return PollResult{}, &PollError{
			Destination: d.name,
			Err:         fmt.Errorf("response carries no state at %q", d.stateField),
		}
	case inSet(d.okStates, state):
		result.State = StateOK
	case inSet(d.failedStates, state):
		result.State = StateFailed
	}

	if result.State.Terminal() {
		if metrics := gjson.GetBytes(payload, d.metricsField); metrics.IsObject() {
			result.Metrics = map[string]interface{}{}
			metrics.ForEach(func(key, value gjson.Result) bool {
				if value.Type == gjson.Number {
					result.Metrics[key.String()] = value.Float()
				} else {
					result.Metrics[key.String()] = value.String()
				}
				return true
			})
		}
	}
	return result, nil
}

func bodySnippet(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return strings.TrimSpace(string(body))
}

func inSet(set map[string]struct{}, state string) bool {
	_, ok := set[state]
	return ok
}

func stateSet(settings map[string]interface{}, key string, fallback []string) map[string]struct{} {
	states := fallback
	if raw, ok := settings[key].([]interface{}); ok && len(raw) > 0 {
		states = make([]string, 0, len(raw))
		for _, v := range raw {
			states = append(states, fmt.Sprint(v))
		}
	}
	set := make(map[string]struct{}, len(states))
	for _, s := range states {
		set[strings.ToLower(s)] = struct{}{}
	}
	return set
}

func stringSetting(settings map[string]interface{}, key, fallback string) string {
	if v, ok := settings[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func durationSetting(settings map[string]interface{}, key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := settings[key]
	if !ok {
		return fallback, nil
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("invalid duration for %s: %v", key, raw)
	}
}
