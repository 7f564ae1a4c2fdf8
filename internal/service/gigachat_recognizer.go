package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fra-atlas/internal/dto"
	"fra-atlas/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatModel    = "GigaChat"
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
)

var errTokenExpired = errors.New("gigachat access token expired")

const structureInstruction = `You read scanned claim forms filed under India's Forest Rights Act, 2006.
Given the text of one form, return a single JSON object and nothing else:
{
  "claimId": "claim number as printed, empty if absent",
  "claimantName": "name of the claimant",
  "village": "village",
  "district": "district",
  "state": "state",
  "area": number (hectares),
  "surveyNumber": "survey or compartment number",
  "confidence": number from 0 to 100 describing how legible the form was
}
Never invent values that are not in the text; use an empty string instead.`

// GigaChatRecognizer reads claim forms through the GigaChat vision endpoint
// and then asks the chat model to structure the text.
type GigaChatRecognizer struct {
	client     *gigago.Client
	model      *gigago.GenerativeModel
	cfg        *config.GigaChatConfig
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
}

func NewGigaChatRecognizer(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GIGACHAT_API_KEY is required for the gigachat OCR provider")
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(gigaChatModel)
	model.SystemInstruction = structureInstruction
	model.Temperature = 0.1

	r := &GigaChatRecognizer{
		client:     client,
		model:      model,
		cfg:        cfg,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		logger:     logger,
	}
	if err := r.refreshToken(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("GigaChat recognizer ready", zap.String("model", gigaChatModel))
	return r, nil
}

func (r *GigaChatRecognizer) ProcessFile(ctx context.Context, path, mimeType string) (*dto.ExtractedRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fileID, err := r.uploadFile(ctx, data, filepath.Base(path), mimeType)
	if errors.Is(err, errTokenExpired) {
		if err := r.refreshToken(ctx); err != nil {
			return nil, err
		}
		fileID, err = r.uploadFile(ctx, data, filepath.Base(path), mimeType)
	}
	if err != nil {
		return nil, err
	}

	text, err := r.readText(ctx, fileID)
	if err != nil {
		return nil, err
	}

	rec, err := r.structure(ctx, text)
	if err != nil {
		return nil, err
	}
	rec.RawText = text
	return rec, nil
}

func (r *GigaChatRecognizer) Close() error {
	if r.client != nil {
		r.client.Close()
	}
	return nil
}

// refreshToken fetches an OAuth token for the REST endpoints gigago does not
// cover. The API key is expected Base64-encoded already.
func (r *GigaChatRecognizer) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("scope", r.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gigaChatOAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create OAuth request: %w", err)
	}
	rqUID := uuid.NewString()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+r.cfg.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("rq_uid", rqUID),
		)
		return fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(body))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return errors.New("empty access token in OAuth response")
	}

	r.mu.Lock()
	r.accessToken = oauthResp.AccessToken
	r.mu.Unlock()
	return nil
}

func (r *GigaChatRecognizer) token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accessToken
}

// uploadFile stores the document in the GigaChat Files API with purpose
// "general" so the vision endpoint can attach it.
func (r *GigaChatRecognizer) uploadFile(ctx context.Context, data []byte, fileName, mimeType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}
	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+r.token())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return "", errTokenExpired
	default:
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(b))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	r.logger.Debug("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

// readText asks the vision endpoint for the verbatim text of an uploaded file.
func (r *GigaChatRecognizer) readText(ctx context.Context, fileID string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": gigaChatModel,
		"messages": []map[string]any{
			{
				"role":        "user",
				"content":     "Transcribe all text of this scanned form exactly as printed or handwritten. Return only the text.",
				"attachments": []string{fileID},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(b))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", errors.New("no response from vision API")
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("no text recognized")
	}
	return text, nil
}

func (r *GigaChatRecognizer) structure(ctx context.Context, text string) (*dto.ExtractedRecord, error) {
	resp, err := r.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from LLM")
	}
	return parseStructuredRecord(resp.Choices[0].Message.Content)
}

// parseStructuredRecord pulls the JSON object out of a model reply, which
// may be wrapped in markdown fences or prose.
func parseStructuredRecord(content string) (*dto.ExtractedRecord, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("invalid response format: %s", content)
	}

	var rec dto.ExtractedRecord
	if err := json.Unmarshal([]byte(content[start:end+1]), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	rec.Confidence = math.Round(math.Max(0, math.Min(100, rec.Confidence))*10) / 10
	if rec.Area < 0 {
		rec.Area = 0
	}
	return &rec, nil
}
