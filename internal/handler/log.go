package handler

import (
	"strconv"
	"time"

	"money-layer/internal/middleware"
	"money-layer/internal/store"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
)

// LogHandler 负责日志查询接口
type LogHandler struct {
	Audit *store.AuditStore
}

func NewLogHandler(audit *store.AuditStore) *LogHandler {
	return &LogHandler{Audit: audit}
}

type logResp struct {
	ID        uint      `json:"id"`
	RequestID string    `json:"request_id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs 列出当前用户最近的写操作（?limit=，最多 200 条）
func (h *LogHandler) ListLogs(c *gin.Context) {
	user := middleware.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.Audit.ListForUser(c.Request.Context(), user.ID, limit)
	if err != nil {
		util.Fail(c, err)
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, logResp{
			ID:        l.ID,
			RequestID: l.RequestID,
			Method:    l.Method,
			Path:      l.Path,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}
