package http

import (
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxUploadSize = 50 << 20 // 50 MiB

	uploadsSubdir = "uploads"
	voiceSubdir   = "voice"
)

// FileHandlers serves attachment and voice-message uploads. Files are
// stored under the data directory with generated names; the original
// file name only travels back in the response metadata.
type FileHandlers struct {
	dataDir string
	log     *zerolog.Logger
}

// NewFileHandlers creates upload handlers rooted at dataDir.
func NewFileHandlers(dataDir string, logger *zerolog.Logger) *FileHandlers {
	return &FileHandlers{
		dataDir: dataDir,
		log:     logger,
	}
}

// UploadResponse describes a stored file. Clients embed it as the
// fileData of a private message.
type UploadResponse struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

// Upload handles POST /api/upload.
func (h *FileHandlers) Upload(c *gin.Context) {
	h.saveUpload(c, uploadsSubdir, "")
}

// UploadVoice handles POST /api/upload-voice.
func (h *FileHandlers) UploadVoice(c *gin.Context) {
	h.saveUpload(c, voiceSubdir, "audio/")
}

func (h *FileHandlers) saveUpload(c *gin.Context, subdir, requiredTypePrefix string) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if requiredTypePrefix != "" && !strings.HasPrefix(mimeType, requiredTypePrefix) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported content type"})
		return
	}

	id := uuid.NewString() + safeExt(file)
	dir := filepath.Join(h.dataDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.log.Error().Err(err).Str("dir", dir).Msg("create upload dir")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upload failed"})
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(dir, id)); err != nil {
		h.log.Error().Err(err).Str("file_id", id).Msg("save upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upload failed"})
		return
	}

	h.log.Info().Str("file_id", id).Int64("size", file.Size).Msg("file uploaded")
	c.JSON(http.StatusOK, UploadResponse{
		FileID:   id,
		FileName: file.Filename,
		FileURL:  "/api/media/" + id,
		FileSize: file.Size,
		MimeType: mimeType,
	})
}

// Serve handles GET /api/media/:id.
func (h *FileHandlers) Serve(c *gin.Context) {
	id := c.Param("id")
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file id"})
		return
	}

	for _, subdir := range []string{uploadsSubdir, voiceSubdir} {
		path := filepath.Join(h.dataDir, subdir, id)
		if _, err := os.Stat(path); err == nil {
			c.File(path)
			return
		}
	}
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
}

// safeExt keeps the upload's extension only when it is a short plain
// suffix; anything odd is dropped rather than sanitized.
func safeExt(file *multipart.FileHeader) string {
	ext := filepath.Ext(file.Filename)
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
