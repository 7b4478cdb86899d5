package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/auth"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/importer"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/parser"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// uploadResponse 上传回执
type uploadResponse struct {
	Message string `json:"message"`
	*model.ImportSummary
}

// MimeFromFilename 未声明类型时按扩展名推断
func MimeFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return parser.MimeXLSX
	case ".xls":
		return parser.MimeXLS
	case ".csv":
		return parser.MimeCSV
	}
	return parser.MimeOctetStream
}

// readUpload 读取 multipart 中的 file 字段
func (h *Handler) readUpload(c *gin.Context) (importer.Upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return importer.Upload{}, false
	}
	if fh.Size > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File too large, maximum %d bytes", h.maxUpload)})
		return importer.Upload{}, false
	}

	data, err := readFileHeader(fh, h.maxUpload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return importer.Upload{}, false
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = MimeFromFilename(fh.Filename)
	}
	up := importer.Upload{Filename: filepath.Base(fh.Filename), MimeType: mimeType, Data: data}
	if claims := auth.ClaimsFrom(c); claims != nil {
		up.UploadedBy = claims.UserID()
	}
	return up, true
}

func readFileHeader(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// uploadStatus 导入错误 -> HTTP 状态码
func uploadStatus(err error) int {
	var pe *importer.PersistenceError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &pe):
		return http.StatusBadGateway
	case errors.Is(err, importer.ErrTooManyRows),
		errors.Is(err, importer.ErrEmptySheet),
		errors.Is(err, importer.ErrNoValidRows):
		return http.StatusBadRequest
	}
	var ce *importer.ContainerError
	if errors.As(err, &ce) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Upload 上传加班表格
// POST /api/operations/upload
func (h *Handler) Upload(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}

	summary, err := h.importer.Import(c.Request.Context(), up)
	status := uploadStatus(err)
	if err == nil {
		c.JSON(status, uploadResponse{Message: "File processed successfully", ImportSummary: summary})
		return
	}

	body := gin.H{"error": err.Error()}
	var pe *importer.PersistenceError
	switch {
	case errors.Is(err, importer.ErrNoValidRows):
		body["error"] = "No valid rows found in file"
	case errors.As(err, &pe):
		body["error"] = "Failed to save operations to the database"
	case status == http.StatusInternalServerError:
		h.logger.Error("upload failed", "filename", up.Filename, "error", err)
		body["error"] = "Internal server error"
	}
	if summary != nil {
		body["summary"] = summary
	}
	c.JSON(status, body)
}

// UploadStream 上传加班表格 (SSE 流式响应)
// POST /api/operations/upload/stream
func (h *Handler) UploadStream(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for event := range h.importer.ImportStream(c.Request.Context(), up) {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListOperations 分页查询
// GET /api/operations
func (h *Handler) ListOperations(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	r, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := intQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q := store.OperationQuery{
		OperationFilter: store.OperationFilter{Warehouse: sc.Warehouse, StartDate: r.Start, EndDate: r.End},
		Page:            page,
		PageSize:        limit,
	}
	if w := strings.TrimSpace(c.Query("warehouse")); w != "" {
		if !sc.Allows(w) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this warehouse"})
			return
		}
		q.Warehouse = w
	}
	if s := c.Query("approvalStatus"); s != "" {
		q.ApprovalStatus = model.ApprovalStatus(strings.ToLower(s))
		if !q.ApprovalStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid approval status"})
			return
		}
	}

	result, err := h.store.ListOperations(c.Request.Context(), q)
	if err != nil {
		h.internalError(c, "list operations failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// loadOperation 查询记录并校验数据范围
func (h *Handler) loadOperation(c *gin.Context) (*model.Operation, bool) {
	sc, ok := scope(c)
	if !ok {
		return nil, false
	}
	op, err := h.store.GetOperation(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Operation not found"})
		return nil, false
	}
	if err != nil {
		h.internalError(c, "get operation failed", err)
		return nil, false
	}
	if !sc.Allows(op.WarehouseName) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this warehouse"})
		return nil, false
	}
	return op, true
}

// GetOperation 查询单条记录
// GET /api/operations/:id
func (h *Handler) GetOperation(c *gin.Context) {
	op, ok := h.loadOperation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, op)
}

type approvalRequest struct {
	Status model.ApprovalStatus `json:"status" binding:"required"`
}

// UpdateApproval 更新审批状态
// PATCH /api/operations/:id/approval
func (h *Handler) UpdateApproval(c *gin.Context) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be pending, approved or rejected"})
		return
	}
	err := h.store.UpdateApprovalStatus(c.Request.Context(), c.Param("id"), req.Status)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Operation not found"})
		return
	}
	if err != nil {
		h.internalError(c, "update approval failed", err)
		return
	}
	op, ok := h.loadOperation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, op)
}

// DeleteOperation 删除记录
// DELETE /api/operations/:id
func (h *Handler) DeleteOperation(c *gin.Context) {
	err := h.store.DeleteOperation(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Operation not found"})
		return
	}
	if err != nil {
		h.internalError(c, "delete operation failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Operation deleted"})
}
