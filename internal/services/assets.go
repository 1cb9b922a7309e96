package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

type AssetKind string

const (
	AssetLogo  AssetKind = "logo"
	AssetPhoto AssetKind = "photo"
)

const megabyte = 1024 * 1024

type assetRule struct {
	types       map[string]string
	maxBytes    int64
	typeMessage string
	sizeMessage string
}

var assetRules = map[AssetKind]assetRule{
	AssetLogo: {
		types:       map[string]string{"image/png": ".png", "image/jpeg": ".jpg", "image/webp": ".webp"},
		maxBytes:    2 * megabyte,
		typeMessage: "Lütfen PNG, JPG veya WEBP formatında bir dosya seçin",
		sizeMessage: "Dosya boyutu 2MB'dan küçük olmalıdır",
	},
	AssetPhoto: {
		types:       map[string]string{"image/png": ".png", "image/jpeg": ".jpg", "image/gif": ".gif", "image/webp": ".webp"},
		maxBytes:    10 * megabyte,
		typeMessage: "Lütfen PNG, JPG, GIF veya WEBP formatında bir dosya seçin",
		sizeMessage: "Dosya boyutu 10MB'dan küçük olmalıdır",
	},
}

// ValidationError carries the message shown to the admin; it unwraps to
// ErrUnsupportedType or ErrFileTooLarge.
type ValidationError struct {
	Reason  error
	Message string
}

func (err *ValidationError) Error() string { return err.Message }
func (err *ValidationError) Unwrap() error { return err.Reason }

// Uploader stores an asset and returns its durable public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type Asset struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateAsset checks type and declared size without touching the body.
func ValidateAsset(kind AssetKind, contentType string, size int64) error {
	rule, ok := assetRules[kind]
	if !ok {
		return fmt.Errorf("unknown asset kind %q", kind)
	}
	if _, ok := rule.types[normalizeContentType(contentType)]; !ok {
		return &ValidationError{Reason: ErrUnsupportedType, Message: rule.typeMessage}
	}
	if size > rule.maxBytes {
		return &ValidationError{Reason: ErrFileTooLarge, Message: rule.sizeMessage}
	}
	return nil
}

func normalizeContentType(contentType string) string {
	if index := strings.Index(contentType, ";"); index >= 0 {
		contentType = contentType[:index]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "image/jpg" {
		return "image/jpeg"
	}
	return contentType
}

type AssetService struct {
	uploader Uploader
	settings *SettingsService
	photos   repository.PhotoRepository
}

func NewAssetService(uploader Uploader, settings *SettingsService, photos repository.PhotoRepository) *AssetService {
	return &AssetService{uploader: uploader, settings: settings, photos: photos}
}

// Upload validates before any network call, then re-checks the real size
// while buffering the body.
func (service *AssetService) Upload(ctx context.Context, kind AssetKind, asset Asset) (string, error) {
	if err := ValidateAsset(kind, asset.ContentType, asset.Size); err != nil {
		return "", err
	}
	rule := assetRules[kind]

	content, err := io.ReadAll(io.LimitReader(asset.Body, rule.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(content)) > rule.maxBytes {
		return "", &ValidationError{Reason: ErrFileTooLarge, Message: rule.sizeMessage}
	}

	contentType := normalizeContentType(asset.ContentType)
	key := string(kind) + "s/" + contentstore.NewPushKey() + rule.types[contentType]
	url, err := service.uploader.Upload(ctx, key, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", kind, err)
	}
	slog.Info("uploaded asset", "kind", kind, "key", key, "bytes", len(content))
	return url, nil
}

// UploadLogo stores the logo and points settings/logoUrl at it.
func (service *AssetService) UploadLogo(ctx context.Context, asset Asset) (string, error) {
	url, err := service.Upload(ctx, AssetLogo, asset)
	if err != nil {
		return "", err
	}
	if err := service.settings.SetField(ctx, "logoUrl", url); err != nil {
		return "", err
	}
	return url, nil
}

func (service *AssetService) RemoveLogo(ctx context.Context) error {
	return service.settings.SetField(ctx, "logoUrl", nil)
}

// UploadPhoto stores the image and appends it to the gallery.
func (service *AssetService) UploadPhoto(ctx context.Context, asset Asset, caption string) (string, string, error) {
	url, err := service.Upload(ctx, AssetPhoto, asset)
	if err != nil {
		return "", "", err
	}
	id, err := service.photos.Add(ctx, models.Photo{URL: url, Caption: strings.TrimSpace(caption)})
	if err != nil {
		return "", "", err
	}
	return id, url, nil
}
