// tavle/handlers/images.go
package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register decoders for upload validation
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"tavle/config"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

var extensionForType = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var contentTypeForExtension = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// HandleUploadImage accepts a multipart image upload. The metadata row is
// inserted first; the file write follows and a write failure removes the
// file reference from reach by erroring out before any thread or post can
// name the image id.
func HandleUploadImage(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleUploadImage")

	user, ok := requireUser(w, r, app)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(config.MaxFileSize + 1024); err != nil {
		badField(w, app, "invalid_form", "could not parse multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		badField(w, app, "missing_image", "an image file is required")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Error("Failed to close upload file", "error", err)
		}
	}()

	limitedReader := &io.LimitedReader{R: file, N: config.MaxFileSize + 1}
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		badField(w, app, "unreadable_image", "could not read file data")
		return
	}
	if limitedReader.N == 0 {
		badField(w, app, "image_too_large",
			fmt.Sprintf("file is larger than the %dMB limit", config.MaxFileSize/1024/1024))
		return
	}
	if len(data) == 0 {
		badField(w, app, "empty_image", "file is empty")
		return
	}

	// Magic byte validation
	contentType := http.DetectContentType(data)
	extension, allowed := extensionForType[contentType]
	if !allowed {
		logger.Warn("User uploaded file with invalid MIME type", "detected_type", contentType)
		badField(w, app, "unsupported_image_type",
			"unsupported file type, only JPG, PNG, GIF, and WebP are allowed")
		return
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		badField(w, app, "undecodable_image", "file does not decode as an image")
		return
	}
	if cfg.Width > config.MaxWidth || cfg.Height > config.MaxHeight {
		badField(w, app, "image_dimensions_exceeded",
			fmt.Sprintf("image dimensions (%dx%d) exceed maximum (%dx%d)",
				cfg.Width, cfg.Height, config.MaxWidth, config.MaxHeight))
		return
	}
	// Full decode catches truncated or corrupt files the header check misses.
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		badField(w, app, "corrupt_image", "image data is corrupt")
		return
	}

	fileName := fmt.Sprintf("%s.%s", uuid.New().String(), extension)
	imageID, err := app.DB().InsertImage(user.ID, fileName, extension)
	if err != nil {
		respondError(w, err, app)
		return
	}

	if err := app.Storage().SaveFile(fileName, data, contentType); err != nil {
		logger.Error("Failed to write image file after metadata insert",
			"image_id", imageID, "file_name", fileName, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"code": "image_write_failed", "error": "could not store image file",
		}, app)
		return
	}

	logger.Info("Image uploaded", "image_id", imageID, "user_id", user.ID)
	respondJSON(w, http.StatusCreated, map[string]int64{"image_id": imageID}, app)
}

// HandleGetImage serves an uploaded image file by id.
func HandleGetImage(w http.ResponseWriter, r *http.Request, app App) {
	imageID, ok := pathID(r, "imageID")
	if !ok {
		badField(w, app, "invalid_image_id", "invalid image id")
		return
	}

	img, err := app.DB().RetrieveImage(imageID)
	if err != nil {
		respondError(w, err, app)
		return
	}

	data, err := app.Storage().ReadFile(img.FileName)
	if err != nil {
		app.Logger().Error("Image metadata exists but file read failed",
			"image_id", img.ID, "file_name", img.FileName, "error", err)
		respondJSON(w, http.StatusNotFound, map[string]string{
			"code": "image_file_missing", "error": "image file not found",
		}, app)
		return
	}

	contentType, ok := contentTypeForExtension[img.FileExtension]
	if !ok {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(data); err != nil {
		app.Logger().Error("Failed to write image response", "image_id", img.ID, "error", err)
	}
}
