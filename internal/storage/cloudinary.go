package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"
)

const cloudinaryBaseURL = "https://api.cloudinary.com"

// CloudinaryUploader posts unsigned uploads against an upload preset.
type CloudinaryUploader struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	client       *http.Client
}

func NewCloudinaryUploader(cloudName, uploadPreset string) *CloudinaryUploader {
	return &CloudinaryUploader{
		baseURL:      cloudinaryBaseURL,
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL points the uploader at another API host.
func (uploader *CloudinaryUploader) WithBaseURL(baseURL string) *CloudinaryUploader {
	uploader.baseURL = strings.TrimRight(baseURL, "/")
	return uploader
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (uploader *CloudinaryUploader) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if uploader.cloudName == "" || uploader.uploadPreset == "" {
		return "", errors.New("cloudinary is not configured")
	}

	var payload bytes.Buffer
	form := multipart.NewWriter(&payload)
	if err := form.WriteField("upload_preset", uploader.uploadPreset); err != nil {
		return "", fmt.Errorf("writing upload form: %w", err)
	}
	if folder := path.Dir(key); folder != "." {
		if err := form.WriteField("folder", folder); err != nil {
			return "", fmt.Errorf("writing upload form: %w", err)
		}
	}
	part, err := form.CreateFormFile("file", path.Base(key))
	if err != nil {
		return "", fmt.Errorf("writing upload form: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("copying upload body: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("closing upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", uploader.baseURL, uploader.cloudName)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &payload)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	request.Header.Set("Content-Type", form.FormDataContentType())

	response, err := uploader.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("uploading to cloudinary: %w", err)
	}
	defer response.Body.Close()

	var result cloudinaryResponse
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding cloudinary response (status %d): %w", response.StatusCode, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	if response.StatusCode != http.StatusOK || result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary: unexpected status %d", response.StatusCode)
	}
	return result.SecureURL, nil
}
