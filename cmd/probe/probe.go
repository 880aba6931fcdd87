package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ppg-monitor-be/internal/dto"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

var errUnexpected = errors.New("unexpected response")

// Probe talks to one monitor instance.
type Probe struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	// pollEvery is how often Readings polls /results.
	pollEvery time.Duration
}

func NewProbe(baseURL string, timeout time.Duration) *Probe {
	return &Probe{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		timeout:   timeout,
		pollEvery: time.Second,
	}
}

func (p *Probe) getJSON(path string, wantStatus int, out interface{}) error {
	resp, err := p.client.Get(p.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%w: %s returned %d", errUnexpected, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *Probe) Health() error {
	var body dto.HealthResponse
	if err := p.getJSON("/health", http.StatusOK, &body); err != nil {
		return err
	}
	if body.Status != "UP" {
		return fmt.Errorf("%w: status %q", errUnexpected, body.Status)
	}
	fmt.Printf("  busy=%t active=%t push=%s\n", body.ServerBusy, body.MeasurementActive, body.WebsocketPath)
	return nil
}

func (p *Probe) Beat() error {
	var body dto.BeatResponse
	if err := p.getJSON("/beat", http.StatusOK, &body); err != nil {
		return err
	}
	fmt.Printf("  last beat=%sms beats=%d active=%t\n", body.LastBeatTime, body.BeatsDetected, body.MeasurementActive)
	return nil
}

// Readings starts a session and polls /results until it completes or ctx
// is done.
func (p *Probe) Readings(ctx context.Context) error {
	var started dto.ReadingsStartedResponse
	if err := p.getJSON("/readings", http.StatusAccepted, &started); err != nil {
		return err
	}
	color.Cyan("  %s (session %s)", started.Message, started.SessionID)

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var raw json.RawMessage
		if err := p.getJSON("/results", http.StatusOK, &raw); err != nil {
			return err
		}
		var status struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &status); err != nil {
			return err
		}
		if status.Status != "success" {
			var notReady dto.ResultsNotReadyResponse
			_ = json.Unmarshal(raw, &notReady)
			if !notReady.MeasurementActive {
				return fmt.Errorf("%w: measurement stopped without a result", errUnexpected)
			}
			continue
		}

		var res dto.ResultsResponse
		if err := json.Unmarshal(raw, &res); err != nil {
			return err
		}
		fmt.Printf("  heart rate=%.1f bpm spo2=%d%% beats=%d\n", res.HeartRate, res.SpO2, res.BeatsDetected)
		return nil
	}
}

func (p *Probe) streamURL() (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Stream connects to the push channel, expects the greeting, pings and
// then prints pushed events for watch.
func (p *Probe) Stream(ctx context.Context, watch time.Duration) error {
	target, err := p.streamURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: p.timeout}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var greeting dto.ConnectedEvent
	if err := p.readEvent(conn, &greeting); err != nil {
		return err
	}
	if greeting.Event != "connected" {
		return fmt.Errorf("%w: first event %q", errUnexpected, greeting.Event)
	}
	fmt.Printf("  %s\n", greeting.Message)

	if err := conn.WriteJSON(dto.CommandRequest{Command: dto.CommandPing}); err != nil {
		return err
	}

	// broadcasts may arrive before the pong
	sent := time.Now()
	for {
		var ev map[string]interface{}
		if err := p.readEvent(conn, &ev); err != nil {
			return err
		}
		if ev["event"] == "pong" {
			fmt.Printf("  pong after %s\n", time.Since(sent).Round(time.Millisecond))
			break
		}
	}

	deadline := time.Now().Add(watch)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil
			}
			return err
		}
		fmt.Printf("  %s\n", data)
	}
	return nil
}

func (p *Probe) readEvent(conn *websocket.Conn, out interface{}) error {
	conn.SetReadDeadline(time.Now().Add(p.timeout))
	return conn.ReadJSON(out)
}
