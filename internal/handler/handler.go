package handler

import (
	"strconv"
	"time"

	"bankapp/internal/config"
	"bankapp/internal/security"
	"bankapp/internal/service"
	"bankapp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	ledgerService   *service.LedgerService
	accountService  *service.AccountService
	queryService    *service.TransactionQueryService
	customerService *service.CustomerService
	authService     *security.AuthService
	policy          *security.AccessPolicy
}

// NewHandler 创建处理器实例
func NewHandler(store service.Store, rdb *redis.Client, cfg *config.Config, jwtManager *security.JWTManager) *Handler {
	customerService := service.NewCustomerService(store)
	return &Handler{
		ledgerService:   service.NewLedgerService(store, rdb, cfg),
		accountService:  service.NewAccountService(store, cfg),
		queryService:    service.NewTransactionQueryService(store),
		customerService: customerService,
		authService:     security.NewAuthService(store, customerService, jwtManager, &cfg.JWT),
		policy:          security.NewAccessPolicy(store),
	}
}

// ============================================================
// 公共辅助
// ============================================================

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		response.ParamError(c, name+" 参数错误")
		return 0, false
	}
	return id, true
}

func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	return page, size
}

// parseDateRange 解析 start/end 查询参数
// 支持 RFC3339 和 2006-01-02 两种格式；纯日期的 end 取当天结束，保证闭区间
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, okStart := parseDate(c.Query("start"), false)
	end, okEnd := parseDate(c.Query("end"), true)
	if !okStart || !okEnd {
		response.ParamError(c, "start/end 参数错误，支持 RFC3339 或 2006-01-02 格式")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseDate(s string, endOfDay bool) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// forbidden 统一的越权响应
func forbidden(c *gin.Context) {
	response.Error(c, 403, response.CodeForbidden, "无权访问该资源")
}
