package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/httputil"
)

var ErrUnauthorized = errors.New("not authorized")

// APIError is a non-2xx answer of the server.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Unwrap maps the status back to the sentinel the server answered it for,
// so callers can use errors.Is on both sides of the wire.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return errorvalues.ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return errorvalues.ErrForbidden
	case http.StatusNotFound:
		return errorvalues.ErrUserNotFound
	case http.StatusConflict:
		return errorvalues.ErrUserExists
	}
	return nil
}

type Session struct {
	UserID uuid.UUID `json:"uid"`
	Token  string    `json:"token"`
}

type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	DayStartTime string `json:"dayStartTime,omitempty"`
	DayEndTime   string `json:"dayEndTime,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
}

type MealTotals struct {
	TotalProtein float64 `json:"totalProtein"`
	TotalFiber   float64 `json:"totalFiber"`
}

// Client talks to the /api/v1 surface of the server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (uuid.UUID, error) {
	var resp struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", req, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.UserID, nil
}

// Login authenticates and keeps the token for the following calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

func (c *Client) UpsertProfile(ctx context.Context, uid uuid.UUID, profile entity.Profile) (*entity.NutritionalNeeds, error) {
	body := map[string]any{"profile": profile}
	var resp struct {
		UserID uuid.UUID               `json:"userId"`
		Needs  entity.NutritionalNeeds `json:"needs"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/profile", body, &resp); err != nil {
		return nil, err
	}
	if resp.UserID != uid {
		return nil, fmt.Errorf("profile stored for %s, expected %s", resp.UserID, uid)
	}
	return &resp.Needs, nil
}

func (c *Client) GetUser(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	var resp struct {
		User entity.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/"+uid.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// AddWater returns the day's water count after the addition.
func (c *Client) AddWater(ctx context.Context, uid uuid.UUID, glasses int) (int, error) {
	body := map[string]int{"glasses": glasses}
	var resp struct {
		WaterGlasses int `json:"waterGlasses"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/hydration/"+uid.String(), body, &resp); err != nil {
		return 0, err
	}
	return resp.WaterGlasses, nil
}

func (c *Client) RecordMeal(ctx context.Context, uid uuid.UUID, slot entity.MealSlot, protein, fiber float64) (*MealTotals, error) {
	body := map[string]any{
		"meal": map[string]any{"type": slot, "protein": protein, "fiber": fiber},
	}
	var totals MealTotals
	if err := c.do(ctx, http.MethodPost, "/api/v1/nutrition/"+uid.String(), body, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

func (c *Client) GetRecord(ctx context.Context, uid uuid.UUID, date string) (*entity.DailyRecord, error) {
	var resp struct {
		Data entity.DailyRecord `json:"data"`
	}
	path := "/api/v1/hydration/" + uid.String() + "/" + url.PathEscape(date)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetHistory returns up to days records, most recent first.
func (c *Client) GetHistory(ctx context.Context, uid uuid.UUID, days int) ([]entity.DailyProgress, error) {
	var resp struct {
		History []entity.DailyProgress `json:"history"`
	}
	path := "/api/v1/hydration/" + uid.String() + "?days=" + strconv.Itoa(days)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *Client) GetSummary(ctx context.Context, uid uuid.UUID) (*entity.Summary, error) {
	var summary entity.Summary
	if err := c.do(ctx, http.MethodGet, "/api/v1/summary/"+uid.String(), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) GetStreak(ctx context.Context, uid uuid.UUID) (*entity.StreakState, error) {
	var state entity.StreakState
	if err := c.do(ctx, http.MethodGet, "/api/v1/streak/"+uid.String(), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return errors.New("encoding request error: " + err.Error())
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.New("building request error: " + err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New("reading response error: " + err.Error())
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp httputil.ErrorResponse
		if sonic.Unmarshal(raw, &errResp) == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
			apiErr.Details = errResp.Details
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err = sonic.Unmarshal(raw, out); err != nil {
		return errors.New("decoding response error: " + err.Error())
	}
	return nil
}
