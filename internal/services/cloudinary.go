package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// PhotoFolder is the Cloudinary folder that activity photos land in.
const PhotoFolder = "sportlog/activities"

// PhotoService stores activity photos in Cloudinary.
type PhotoService struct {
	cld *cloudinary.Cloudinary
}

func NewPhotoService(cloudName, apiKey, apiSecret string) (*PhotoService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &PhotoService{cld: cld}, nil
}

// Upload stores a photo and returns its public URL.
func (s *PhotoService) Upload(ctx context.Context, file multipart.File) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       PhotoFolder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.SecureURL, nil
}

// UploadFromHeader opens a multipart file header and uploads it.
func (s *PhotoService) UploadFromHeader(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.Upload(ctx, file)
}

// ReleaseAsync destroys a previously uploaded photo in the background. The
// row mutation has already happened, so a failed destroy only leaks an
// orphaned asset; it never fails the request.
func (s *PhotoService) ReleaseAsync(photoURL string) {
	publicID := publicIDFromURL(photoURL)
	if publicID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
			log.Printf("failed to release photo %s: %v", publicID, err)
		}
	}()
}

// publicIDFromURL recovers the Cloudinary public id from a delivery URL.
// Returns "" for URLs that are not ours.
func publicIDFromURL(photoURL string) string {
	idx := strings.Index(photoURL, "/"+PhotoFolder+"/")
	if idx == -1 {
		return ""
	}
	rest := photoURL[idx+1:]
	ext := path.Ext(rest)
	return strings.TrimSuffix(rest, ext)
}
