package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/flowave-io/devconsole/internal/console"
	"github.com/flowave-io/devconsole/internal/encoding/jsonx"
)

// maxResponseBytes bounds how much of a host reply is read.
const maxResponseBytes = 1 << 20

// Request is the body posted to the host endpoint.
type Request struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Style   string `json:"style"`
}

// Response is the host's reply.
type Response struct {
	ID     string `json:"id"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// HTTPHandler forwards commands to a host process listening on Endpoint.
type HTTPHandler struct {
	Endpoint string
	Client   *http.Client
	NewID    func() string
}

// NewHTTPHandler returns a handler using a pooled cleanhttp client.
func NewHTTPHandler(endpoint string) *HTTPHandler {
	return &HTTPHandler{
		Endpoint: endpoint,
		Client:   cleanhttp.DefaultPooledClient(),
		NewID:    uuid.NewString,
	}
}

func (h *HTTPHandler) Handle(ctx context.Context, cmd console.Command) (string, error) {
	id := h.NewID()
	body, err := jsonx.Marshal(Request{ID: id, Command: cmd.Text, Style: cmd.Style.String()})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post command: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("host returned %s", resp.Status)
	}
	var out Response
	if err := jsonx.Decode(resp.Body, maxResponseBytes, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.ID != "" && out.ID != id {
		return "", fmt.Errorf("response id %s does not match request %s", out.ID, id)
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return out.Output, nil
}
