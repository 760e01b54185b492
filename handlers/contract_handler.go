package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/phuslu/log"

	"laborlens-backend/pipeline"
	"laborlens-backend/storage"
)

// ContractHandler handles HTTP requests for contract review.
type ContractHandler struct {
	sessions     *pipeline.SessionStore
	orchestrator *pipeline.Orchestrator
	local        *storage.LocalStore
	artifacts    storage.Store
	maxFileSize  int64
	allowedExts  map[string]bool
}

// NewContractHandler creates a contract handler. Uploads always land on the
// local store because the extraction tooling works on real file paths;
// contract text and reports go to the configured artifact store.
func NewContractHandler(
	sessions *pipeline.SessionStore,
	orchestrator *pipeline.Orchestrator,
	local *storage.LocalStore,
	artifacts storage.Store,
) *ContractHandler {
	return &ContractHandler{
		sessions:     sessions,
		orchestrator: orchestrator,
		local:        local,
		artifacts:    artifacts,
		maxFileSize:  10 * 1024 * 1024, // 10MB
		allowedExts: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".pdf":  true,
			".txt":  true,
		},
	}
}

// UploadContract handles POST /api/contracts/upload. The review runs within
// the request; a client that wants progress polls the progress endpoint with
// the session id it chose (or finds in the response) while this request is
// in flight.
func (h *ContractHandler) UploadContract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	if !h.allowedExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNSUPPORTED_FORMAT",
				"message": "不支援的檔案格式。僅支援: .jpg, .jpeg, .png, .pdf, .txt",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": "檔案大小超過 10MB 上限",
			},
		})
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	now := time.Now()
	uploadPath := h.local.Path(storage.UploadKey(now, fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, uploadPath); err != nil {
		log.Error().Err(err).Msg("failed to save upload")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "檔案儲存失敗",
			},
		})
		return
	}

	h.sessions.Create(sessionID)

	result, err := h.orchestrator.Run(c.Request.Context(), sessionID, uploadPath, now)
	if err != nil {
		status, code := classifyFailure(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "契約分析完成",
		"data": gin.H{
			"session_id":            sessionID,
			"report_id":             strings.TrimSuffix(path.Base(result.ReportKey), ".txt"),
			"extracted_text_length": result.Report.ContractLength,
			"report_preview":        result.ReportText,
			"report":                result.Report,
			"download_url":          "/api/contracts/download/" + path.Base(result.ReportKey),
		},
	})
}

func classifyFailure(err error) (int, string) {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
	switch stageErr.Kind {
	case pipeline.KindPrecondition:
		return http.StatusBadRequest, "PRECONDITION_FAILED"
	case pipeline.KindExtraction:
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED"
	case pipeline.KindProvider:
		return http.StatusBadGateway, "PROVIDER_FAILED"
	case pipeline.KindPersistence:
		return http.StatusInternalServerError, "PERSISTENCE_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// GetProgress handles GET /api/contracts/progress/:sessionId. Finished and
// unknown sessions both report not found; pollers treat that as terminal.
func (h *ContractHandler) GetProgress(c *gin.Context) {
	sessionID := c.Param("sessionId")

	session, ok := h.sessions.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "Session not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"session_id": session.SessionID,
			"steps":      session.Steps,
		},
	})
}

var reportNameRe = regexp.MustCompile(`^report-(\d+)\.txt$`)

// ListReports handles GET /api/contracts/reports.
func (h *ContractHandler) ListReports(c *gin.Context) {
	keys, err := h.artifacts.List(c.Request.Context(), "reports")
	if err != nil {
		log.Error().Err(err).Msg("failed to list reports")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": "無法列出報告",
			},
		})
		return
	}

	reports := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		name := path.Base(key)
		m := reportNameRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		createdAt, _ := strconv.ParseInt(m[1], 10, 64)

		entry := gin.H{
			"filename":     name,
			"created_at":   createdAt,
			"download_url": "/api/contracts/download/" + name,
		}
		if info, err := os.Stat(h.local.Path(key)); err == nil {
			entry["size"] = info.Size()
		}
		reports = append(reports, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"reports": reports},
	})
}

// DownloadReport handles GET /api/contracts/download/:filename.
func (h *ContractHandler) DownloadReport(c *gin.Context) {
	filename := c.Param("filename")
	if !reportNameRe.MatchString(filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILENAME",
				"message": "Invalid report filename",
			},
		})
		return
	}

	reader, err := h.artifacts.Open(c.Request.Context(), path.Join("reports", filename))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "REPORT_NOT_FOUND",
					"message": "報告不存在",
				},
			})
			return
		}
		log.Error().Err(err).Str("filename", filename).Msg("failed to open report")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": "無法讀取報告",
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("report download interrupted")
	}
}
