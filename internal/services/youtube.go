// YouTube Music [Catalog] implementation
//
// Communicates with the FastAPI proxy server running on port 8080.
// The proxy wraps the ytmusicapi Python library for YouTube Music operations.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/ytsync/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYTBaseURL string = "http://localhost:8080"

var _ Catalog = (*YouTubeService)(nil)

// YouTubeService implements [Catalog] for YouTube Music via the proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64 // 0 disables throttling
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYTBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &YouTubeService{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to headers_auth.json or browser.json.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file in credentials", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

type statusResponse struct {
	Status Status `json:"status"`
}

func (y *YouTubeService) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (y *YouTubeService) do(req *http.Request, result any) error {
	if err := y.limiter.Wait(req.Context()); err != nil {
		return err
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

func (y *YouTubeService) doJSON(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := y.newRequest(ctx, method, endpoint, reader, "application/json")
	if err != nil {
		return err
	}
	return y.do(req, result)
}

// ListUploadedSongs returns uploaded songs.
//
// Calls GET /api/uploads/songs?limit={limit} on the proxy.
func (y *YouTubeService) ListUploadedSongs(ctx context.Context, limit int) ([]UploadedSong, error) {
	endpoint := "/api/uploads/songs?limit=" + strconv.Itoa(limit)

	var songs []UploadedSong
	if err := y.doJSON(ctx, http.MethodGet, endpoint, nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// UploadSong uploads a local file as multipart form data.
//
// Calls POST /api/uploads/songs on the proxy.
func (y *YouTubeService) UploadSong(ctx context.Context, path string) (Status, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := y.newRequest(ctx, http.MethodPost, "/api/uploads/songs", &buf, form.FormDataContentType())
	if err != nil {
		return "", err
	}

	var resp statusResponse
	if err := y.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// DeleteUploadEntity deletes an uploaded song.
//
// Calls DELETE /api/uploads/songs/{entityId} on the proxy.
func (y *YouTubeService) DeleteUploadEntity(ctx context.Context, entityID string) (Status, error) {
	endpoint := "/api/uploads/songs/" + url.PathEscape(entityID)

	var resp statusResponse
	if err := y.doJSON(ctx, http.MethodDelete, endpoint, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// ListPlaylists retrieves all library playlists.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	if err := y.doJSON(ctx, http.MethodGet, "/api/library/playlists", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// CreatePlaylist creates a private playlist.
//
// Calls POST /api/playlists on the proxy. ytmusicapi answers with either the new id
// or an error object; the latter is surfaced as a non-success status.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string) (string, Status, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         title,
		Description:   description,
		PrivacyStatus: "PRIVATE",
	}

	var createResp struct {
		PlaylistID string         `json:"playlist_id"`
		Error      map[string]any `json:"error,omitempty"`
	}
	if err := y.doJSON(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return "", "", err
	}

	if createResp.PlaylistID == "" {
		status := Status("STATUS_FAILED")
		if msg, ok := createResp.Error["message"].(string); ok && msg != "" {
			status = Status(msg)
		}
		return "", status, nil
	}
	return createResp.PlaylistID, StatusSucceeded, nil
}

// DeletePlaylist deletes a playlist.
//
// Calls DELETE /api/playlists/{id} on the proxy.
func (y *YouTubeService) DeletePlaylist(ctx context.Context, playlistID string) (Status, error) {
	endpoint := "/api/playlists/" + url.PathEscape(playlistID)

	var resp statusResponse
	if err := y.doJSON(ctx, http.MethodDelete, endpoint, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// GetPlaylistTracks retrieves a playlist's entries.
//
// Calls GET /api/playlists/{id}?limit={limit} on the proxy.
func (y *YouTubeService) GetPlaylistTracks(ctx context.Context, playlistID string, limit int) ([]PlaylistTrack, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s?limit=%d", url.PathEscape(playlistID), limit)

	var playlist struct {
		ID     string          `json:"id"`
		Tracks []PlaylistTrack `json:"tracks"`
	}
	if err := y.doJSON(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return playlist.Tracks, nil
}

// AddPlaylistItems adds videos to a playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (y *YouTubeService) AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) (Status, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	body := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: videoIDs}

	var resp statusResponse
	if err := y.doJSON(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// RemovePlaylistItems removes entries from a playlist.
//
// Calls POST /api/playlists/{id}/items/remove on the proxy.
func (y *YouTubeService) RemovePlaylistItems(ctx context.Context, playlistID string, items []PlaylistTrack) (Status, error) {
	endpoint := fmt.Sprintf("/api/playlists/%s/items/remove", url.PathEscape(playlistID))
	body := struct {
		Videos []PlaylistTrack `json:"videos"`
	}{Videos: items}

	var resp statusResponse
	if err := y.doJSON(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
