package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/sketchroom/pkg/types"
)

var ErrCreateRoom = errors.New("create room failed")
var ErrListRooms = errors.New("list rooms failed")

// APIError is a non-2xx answer from the room server.
type APIError struct {
	Status int
	Desc   string
	op     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %d %s", e.op, e.Status, e.Desc)
}

func (e *APIError) Unwrap() error { return e.op }

// Client talks to the room server's HTTP endpoints. Room traffic itself goes
// over the websocket.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Logger:  logger.Named("httpapi"),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// ListRooms returns one page of public room codes starting at offset.
func (c *Client) ListRooms(ctx context.Context, offset int) ([]string, error) {
	u, err := url.Parse(c.BaseURL + "/rooms")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListRooms, err)
	}
	if offset > 0 {
		u.RawQuery = url.Values{"offset": {strconv.Itoa(offset)}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListRooms, err)
	}

	var codes []string
	if err := c.do(req, ErrListRooms, &codes); err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// CreateRoom fills defaults and validates locally before asking the server,
// so an invalid request never leaves the client.
func (c *Client) CreateRoom(ctx context.Context, s types.Settings) (types.CreateRoomResp, error) {
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return types.CreateRoomResp{}, fmt.Errorf("%w: %w", ErrCreateRoom, err)
	}
	body, err := json.Marshal(s)
	if err != nil {
		return types.CreateRoomResp{}, fmt.Errorf("%w: %w", ErrCreateRoom, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rooms/create", bytes.NewReader(body))
	if err != nil {
		return types.CreateRoomResp{}, fmt.Errorf("%w: %w", ErrCreateRoom, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp types.CreateRoomResp
	if err := c.do(req, ErrCreateRoom, &resp); err != nil {
		return types.CreateRoomResp{}, err
	}
	c.logger().Info("room created", zap.String("code", resp.Code))
	return resp, nil
}

func (c *Client) do(req *http.Request, op error, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, op: op}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		var er types.ErrorResp
		if json.Unmarshal(b, &er) == nil && er.ErrorDesc != "" {
			apiErr.Desc = er.ErrorDesc
		} else {
			apiErr.Desc = strings.TrimSpace(string(b))
		}
		c.logger().Warn("request failed", zap.String("url", req.URL.Path), zap.Int("status", resp.StatusCode), zap.String("desc", apiErr.Desc))
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", op, err)
	}
	return nil
}
