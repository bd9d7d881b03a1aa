package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"ragbot/src/log"
)

type UnstructuredService struct {
	baseURL    string
	httpClient *http.Client
}

type UnstructuredElement struct {
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	ElementID string   `json:"element_id"`
	Metadata  Metadata `json:"metadata"`
}

type Metadata struct {
	Filename    string      `json:"filename,omitempty"`
	Filetype    string      `json:"filetype,omitempty"`
	PageNumber  int         `json:"page_number,omitempty"`
	Coordinates Coordinates `json:"coordinates,omitempty"`
	TableHTML   string      `json:"table_html,omitempty"`
}

type Coordinates struct {
	Points [][]float64 `json:"points"`
	System string      `json:"system"`
}

// NewUnstructuredService creates a client for an unstructured-api instance.
// A nil httpClient falls back to a default client.
func NewUnstructuredService(baseURL string, httpClient *http.Client) *UnstructuredService {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &UnstructuredService{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Extract converts a document into plain text. Element texts are joined with
// blank lines so the splitter sees paragraph boundaries.
func (s *UnstructuredService) Extract(ctx context.Context, filename string, content []byte) (string, error) {
	elements, err := s.Partition(ctx, filename, content)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(elements))
	for _, element := range elements {
		if element.Text == "" {
			continue
		}
		texts = append(texts, element.Text)
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("no text extracted from %s", filename)
	}

	return strings.Join(texts, "\n\n"), nil
}

// Partition sends a document to the partitioning endpoint and returns its
// elements.
func (s *UnstructuredService) Partition(ctx context.Context, filename string, content []byte) ([]UnstructuredElement, error) {
	var requestBody bytes.Buffer
	multipartWriter := multipart.NewWriter(&requestBody)

	// Create form file
	fileWriter, err := multipartWriter.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %v", err)
	}

	// Write file content
	if _, err = io.Copy(fileWriter, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to write file content: %v", err)
	}

	// Coarse server-side chunking; the pipeline re-splits locally.
	fields := map[string]string{
		"chunking_strategy":     "by_title",
		"max_characters":        "5000",
		"combine_under_n_chars": "3500",
		"output_format":         "application/json",
	}
	for name, value := range fields {
		if err := multipartWriter.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %v", name, err)
		}
	}

	multipartWriter.Close()

	// Create request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/general/v0/general", &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	// Set headers
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", multipartWriter.FormDataContentType())

	// Send request
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error(fmt.Errorf("partition service error"), "failed to partition document",
			"status", resp.Status, "response", string(body))
		return nil, fmt.Errorf("partition service error: %s", resp.Status)
	}

	// Parse response
	var elements []UnstructuredElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	return elements, nil
}
