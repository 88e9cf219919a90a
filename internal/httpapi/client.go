package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DoyleJ11/lobby-client/internal/engine"
)

var (
	ErrInvalidRoomCode = errors.New("room code must be 4 characters")
	ErrInvalidName     = errors.New("name must be at least 2 characters")
	ErrUnknownGameType = errors.New("unknown game type")
)

const (
	RoomCodeLength = 4
	MinNameLength  = 2
)

type JoinRequest struct {
	GameCode string `json:"game_code"`
	Name     string `json:"name"`
}

type JoinResponse struct {
	UUID string `json:"uuid"`
}

type CreateRequest struct {
	GameType string `json:"game_type"`
	Name     string `json:"name"`
}

type CreateResponse struct {
	GameCode string `json:"game_code"`
	UUID     string `json:"uuid"`
}

// NormalizeRoomCode trims and upper-cases code and checks its length.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if utf8.RuneCountInString(code) != RoomCodeLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomCode, code)
	}
	return code, nil
}

func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func ValidateGameType(id string) error {
	if _, ok := engine.LookupGame(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGameType, id)
	}
	return nil
}

// Client talks to the lobby server's REST endpoints.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for base, e.g. "http://localhost:8000/api".
// A nil hc gets a client with a 10s timeout.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// JoinGame registers name in room code and returns the client id the
// server assigned.
func (c *Client) JoinGame(ctx context.Context, code, name string) (JoinResponse, error) {
	var out JoinResponse
	code, err := NormalizeRoomCode(code)
	if err != nil {
		return out, err
	}
	if name, err = ValidateName(name); err != nil {
		return out, err
	}
	if err := c.post(ctx, "/join-game", JoinRequest{GameCode: code, Name: name}, &out); err != nil {
		return out, fmt.Errorf("failed to join game: %w", err)
	}
	return out, nil
}

// CreateGame opens a new room of gameType with name as host.
func (c *Client) CreateGame(ctx context.Context, gameType, name string) (CreateResponse, error) {
	var out CreateResponse
	if err := ValidateGameType(gameType); err != nil {
		return out, err
	}
	name, err := ValidateName(name)
	if err != nil {
		return out, err
	}
	if err := c.post(ctx, "/create-game", CreateRequest{GameType: gameType, Name: name}, &out); err != nil {
		return out, fmt.Errorf("failed to create game: %w", err)
	}
	return out, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string { return e.Status }

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
