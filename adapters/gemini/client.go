// Package gemini implements the speech backend over the Gemini
// generateContent REST API. Every call takes the API key explicitly so
// the dispatcher can rotate credentials between attempts.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/repositories"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// Path of the generated text inside the response document.
	candidateTextPath = "candidates.0.content.parts.0.text"

	transcribePrompt = `Transcribe the audio accurately in its original language.

Formatting rules:
- Preserve the original meaning exactly
- Add proper punctuation
- Split the text into short, readable paragraphs
- Each paragraph should represent one clear idea
- Avoid long blocks of text
- Remove filler words only if meaning is unchanged
- Do NOT summarize
- Do NOT add explanations

Return ONLY the final formatted transcription.`
)

// Client calls the Gemini REST API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Client implements the SpeechBackend interface
var _ repositories.SpeechBackend = (*Client)(nil)

// New creates a Gemini client for the given model. timeout bounds each
// HTTP request.
func New(model string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetBaseURL overrides the API endpoint. Tests only.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Transcribe converts audio to text by sending the file bytes inline.
func (c *Client) Transcribe(ctx context.Context, key string, audio []byte, mimeType string) (string, error) {
	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: transcribePrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	}
	return c.generateContent(ctx, key, payload)
}

// UploadAndTranscribe uploads a local media file first and transcribes
// it by reference. The uploaded file is deleted afterwards on a best
// effort basis.
func (c *Client) UploadAndTranscribe(ctx context.Context, key string, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read media file: %w", err)
	}

	name, uri, err := c.uploadFile(ctx, key, data)
	if err != nil {
		return "", err
	}
	defer c.deleteFile(key, name)

	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{FileData: &fileData{MimeType: "audio/wav", FileURI: uri}},
				{Text: transcribePrompt},
			},
		}},
	}
	return c.generateContent(ctx, key, payload)
}

// Generate runs an instruction against previously produced text.
func (c *Client) Generate(ctx context.Context, key string, instruction, text string) (string, error) {
	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: fmt.Sprintf("%s\n\n%s", instruction, text)},
			},
		}},
	}
	return c.generateContent(ctx, key, payload)
}

func (c *Client) generateContent(ctx context.Context, key string, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generateContent request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Gemini API returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.model))
		return "", fmt.Errorf("gemini API returned status %d", resp.StatusCode)
	}

	text := gjson.GetBytes(respBody, candidateTextPath)
	if !text.Exists() || text.String() == "" {
		return "", fmt.Errorf("gemini response contained no candidate text")
	}
	return text.String(), nil
}

// uploadFile performs a raw upload and returns the file name and URI.
func (c *Client) uploadFile(ctx context.Context, key string, data []byte) (name, uri string, err error) {
	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-Upload-Command", "start, upload, finalize")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", fmt.Sprintf("%d", len(data)))
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("file upload failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("file upload returned status %d", resp.StatusCode)
	}

	// The name/uri sit either at the top level or under "file".
	name = gjson.GetBytes(respBody, "name").String()
	if name == "" {
		name = gjson.GetBytes(respBody, "file.name").String()
	}
	uri = gjson.GetBytes(respBody, "uri").String()
	if uri == "" {
		uri = gjson.GetBytes(respBody, "file.uri").String()
	}
	if name == "" && uri == "" {
		return "", "", fmt.Errorf("upload response missing file reference")
	}
	return name, uri, nil
}

// deleteFile removes an uploaded file. Failures are logged only.
func (c *Client) deleteFile(key, name string) {
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Failed to delete uploaded file", zap.String("name", name), zap.Error(err))
		return
	}
	resp.Body.Close()
}
