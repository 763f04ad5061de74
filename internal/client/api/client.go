// Package api is the terminal client's view of the game server
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"chess3d/internal/client/display"
	"chess3d/internal/server/core"
)

// Error is a non-2xx reply from the server
type Error struct {
	Status int
	core.ErrorResponse
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s): %s", e.ErrorResponse.Error, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (%s)", e.ErrorResponse.Error, e.Code)
}

// HealthResponse is the /health payload
type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage"`
	Engine  string `json:"engine"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			// Longer than the server's long-poll wait
			Timeout: 35 * time.Second,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonData)
		bodyStr = string(jsonData)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Verbose {
		fmt.Fprintf(c.Out, "%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
		if bodyStr != "" {
			fmt.Fprintf(c.Out, "%s%s%s\n", display.Blue, bodyStr, display.Reset)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if c.Verbose {
		statusColor := display.Green
		if resp.StatusCode >= 400 {
			statusColor = display.Red
		}
		fmt.Fprintf(c.Out, "%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)
		if len(respBody) > 0 {
			display.PrettyPrintRaw(c.Out, respBody)
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.ErrorResponse); err != nil || apiErr.Code == "" {
			apiErr.ErrorResponse = core.ErrorResponse{
				Error: strings.TrimSpace(string(respBody)),
				Code:  http.StatusText(resp.StatusCode),
			}
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("response parse error: %w", err)
		}
	}
	return nil
}

func (c *Client) game(method, path string, body any) (*core.GameResponse, error) {
	var resp core.GameResponse
	if err := c.doRequest(method, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest(http.MethodGet, "/health", nil, &resp)
	return &resp, err
}

func (c *Client) GetGame() (*core.GameResponse, error) {
	return c.game(http.MethodGet, "/api/v1/game", nil)
}

// WaitGame long-polls until the game is no longer gameID at moveCount or the
// server wait times out
func (c *Client) WaitGame(gameID string, moveCount int) (*core.GameResponse, error) {
	q := url.Values{}
	q.Set("wait", "true")
	q.Set("moveCount", fmt.Sprint(moveCount))
	if gameID != "" {
		q.Set("gameId", gameID)
	}
	return c.game(http.MethodGet, "/api/v1/game?"+q.Encode(), nil)
}

func (c *Client) MakeMove(from, to string) (*core.GameResponse, error) {
	return c.game(http.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: from, To: to})
}

func (c *Client) Promote(piece string) (*core.GameResponse, error) {
	return c.game(http.MethodPost, "/api/v1/game/promotion", core.PromotionRequest{Piece: piece})
}

func (c *Client) CancelPromotion() (*core.GameResponse, error) {
	return c.game(http.MethodDelete, "/api/v1/game/promotion", nil)
}

func (c *Client) Reset() (*core.GameResponse, error) {
	return c.game(http.MethodPost, "/api/v1/game/reset", nil)
}

func (c *Client) Configure(req core.SettingsRequest) (*core.GameResponse, error) {
	return c.game(http.MethodPut, "/api/v1/game/settings", req)
}

func (c *Client) Targets(square string) (*core.TargetsResponse, error) {
	var resp core.TargetsResponse
	if err := c.doRequest(http.MethodGet, "/api/v1/game/targets/"+url.PathEscape(square), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Board() (*core.BoardResponse, error) {
	var resp core.BoardResponse
	if err := c.doRequest(http.MethodGet, "/api/v1/game/board", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Scene() (*core.SceneResponse, error) {
	var resp core.SceneResponse
	if err := c.doRequest(http.MethodGet, "/api/v1/game/scene", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RawRequest performs a raw HTTP request and prints the reply
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			bodyData = body
		}
	}

	var result json.RawMessage
	if err := c.doRequest(method, path, bodyData, &result); err != nil {
		return err
	}
	if !c.Verbose && len(result) > 0 {
		display.PrettyPrintRaw(c.Out, result)
	}
	return nil
}
