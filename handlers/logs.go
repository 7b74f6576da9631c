package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"tourbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogsHandler serves the application log file to administrators.
type LogsHandler struct {
	Path string
}

func NewLogsHandler(path string) *LogsHandler {
	return &LogsHandler{Path: path}
}

// DownloadHandler streams the log file as an attachment.
func (h *LogsHandler) DownloadHandler(c *gin.Context) {
	if h.Path == "" {
		utils.JSONError(c, http.StatusNotFound, "Log file is not configured", "")
		return
	}
	info, err := os.Stat(h.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			utils.JSONError(c, http.StatusNotFound, "Log file not found", "")
			return
		}
		getLogger(c).Error("Failed to stat log file", zap.String("path", h.Path), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to read log file", "")
		return
	}
	if info.IsDir() {
		utils.JSONError(c, http.StatusNotFound, "Log file not found", "")
		return
	}
	c.FileAttachment(h.Path, filepath.Base(h.Path))
}
