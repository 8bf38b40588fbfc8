package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/recipenav/recipenav/internal/models"
)

// RecipePayload is the outbound form body for create and update requests.
// Image is optional; when set, ImageName names the uploaded file.
type RecipePayload struct {
	Title       string
	Description string
	Category    string
	Ingredients []string
	ImageName   string
	Image       io.Reader
}

// Client speaks the collection service's HTTP contract. It performs no
// retries and owns no state beyond the base URL; callers decide what a
// failure means for their local snapshot.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client for the service rooted at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/login", username, password)
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, username, password string) (models.Session, error) {
	return c.authenticate(ctx, "/api/v1/auth/register", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (models.Session, error) {
	body, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return models.Session{}, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return models.Session{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp authResponse
	if err := c.do(req, http.StatusOK, http.StatusCreated, &resp); err != nil {
		return models.Session{}, err
	}

	return models.Session{Username: resp.Username, Token: resp.Token}, nil
}

// FetchAll retrieves the full collection. An empty token requests
// anonymously; likedByUser is then false on every record.
func (c *Client) FetchAll(ctx context.Context, token string) ([]models.Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/recipes", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setBearer(req, token)

	var recipes []models.Recipe
	if err := c.do(req, http.StatusOK, 0, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// FetchMine retrieves only the records owned by the token's user.
func (c *Client) FetchMine(ctx context.Context, token string) ([]models.Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/recipes/mine", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setBearer(req, token)

	var recipes []models.Recipe
	if err := c.do(req, http.StatusOK, 0, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Create submits a new record and returns the server-assigned version.
func (c *Client) Create(ctx context.Context, token string, payload RecipePayload) (models.Recipe, error) {
	req, err := c.multipartRequest(ctx, http.MethodPost, "/api/v1/recipes", token, payload)
	if err != nil {
		return models.Recipe{}, err
	}

	var recipe models.Recipe
	if err := c.do(req, http.StatusCreated, http.StatusOK, &recipe); err != nil {
		return models.Recipe{}, err
	}
	return recipe, nil
}

// Update submits changed fields for an owned record and returns the
// server's canonical version.
func (c *Client) Update(ctx context.Context, token, id string, payload RecipePayload) (models.Recipe, error) {
	req, err := c.multipartRequest(ctx, http.MethodPut, "/api/v1/recipes/"+id, token, payload)
	if err != nil {
		return models.Recipe{}, err
	}

	var recipe models.Recipe
	if err := c.do(req, http.StatusOK, 0, &recipe); err != nil {
		return models.Recipe{}, err
	}
	return recipe, nil
}

// Delete removes an owned record.
func (c *Client) Delete(ctx context.Context, token, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/recipes/"+id, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	setBearer(req, token)

	return c.do(req, http.StatusOK, http.StatusNoContent, nil)
}

// ToggleLike flips the caller's like state for a record. The response is
// authoritative: the server decides whether the toggle liked or unliked.
func (c *Client) ToggleLike(ctx context.Context, token, id string) (models.LikeStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/recipes/"+id+"/like", nil)
	if err != nil {
		return models.LikeStatus{}, fmt.Errorf("build request: %w", err)
	}
	setBearer(req, token)

	var status models.LikeStatus
	if err := c.do(req, http.StatusOK, 0, &status); err != nil {
		return models.LikeStatus{}, err
	}
	return status, nil
}

func (c *Client) multipartRequest(ctx context.Context, method, path, token string, payload RecipePayload) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"title":       payload.Title,
		"description": payload.Description,
		"category":    payload.Category,
		"ingredients": strings.Join(payload.Ingredients, "\n"),
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	if payload.Image != nil {
		part, err := w.CreateFormFile("image", payload.ImageName)
		if err != nil {
			return nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, payload.Image); err != nil {
			return nil, fmt.Errorf("copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	setBearer(req, token)
	return req, nil
}

// do executes the request and decodes a JSON body into out when the status
// matches either accepted code. Non-2xx responses become APIError,
// transport failures become NetworkError.
func (c *Client) do(req *http.Request, want, alt int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != want && (alt == 0 || resp.StatusCode != alt) {
		apiErr := &APIError{Status: resp.StatusCode}
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Reason = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
