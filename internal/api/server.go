package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"token-alert-relay/internal/config"
)

// SeenAdmin 运维接口需要的存储能力
type SeenAdmin interface {
	ReadValid(userID string) map[string]struct{}
	Delete(userID string) error
}

// CacheInfo 健康检查需要的缓存状态
type CacheInfo interface {
	Age() time.Duration
}

// Server HTTP 服务封装
type Server struct {
	cfg     config.Config
	store   SeenAdmin
	cache   CacheInfo
	limiter *fixedWindowLimiter
	engine  *gin.Engine
}

func NewServer(cfg config.Config, store SeenAdmin, cache CacheInfo) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		cfg:     cfg,
		store:   store,
		cache:   cache,
		limiter: newFixedWindowLimiter(),
		engine:  gin.New(),
	}

	server.engine.Use(gin.Recovery())
	server.registerRoutes()

	return server
}

func (s *Server) Run() error {
	return s.engine.Run(":" + s.cfg.Port)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/v1/healthz", s.handleHealthz)
	s.engine.GET("/v1/admin/users/:userId/seen", s.handleGetSeen)
	s.engine.DELETE("/v1/admin/users/:userId/seen", s.handleDeleteSeen)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":                 true,
		"time":               time.Now().UTC().Format(time.RFC3339),
		"token_cache_age_ms": s.cache.Age().Milliseconds(),
	})
}

func (s *Server) handleGetSeen(c *gin.Context) {
	operatorID, ok := s.authorize(c, "query")
	if !ok {
		return
	}

	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		writeError(c, http.StatusBadRequest, "user_id 无效")
		return
	}

	count := len(s.store.ReadValid(userID))
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"user_id":  userID,
		"count":    count,
		"operator": operatorID,
	})
}

func (s *Server) handleDeleteSeen(c *gin.Context) {
	operatorID, ok := s.authorize(c, "delete")
	if !ok {
		return
	}

	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		writeError(c, http.StatusBadRequest, "user_id 无效")
		return
	}

	if err := s.store.Delete(userID); err != nil {
		writeError(c, http.StatusBadGateway, fmt.Sprintf("删除记录集失败: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"user_id":  userID,
		"operator": operatorID,
	})
}

// authorize 校验操作员身份并执行限流；未通过时已写好响应。
func (s *Server) authorize(c *gin.Context, action string) (string, bool) {
	operatorID := strings.TrimSpace(c.GetHeader("X-Operator-Id"))
	if operatorID == "" || !containsID(s.cfg.OperatorIDs, operatorID) {
		writeError(c, http.StatusForbidden, "无操作权限")
		return "", false
	}

	key := fmt.Sprintf("%s:%s", action, operatorID)
	if !s.limiter.Allow(key, s.cfg.AdminLimitPerWindow, s.cfg.RateWindow) {
		writeError(c, http.StatusTooManyRequests, "操作过于频繁")
		return "", false
	}

	return operatorID, true
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func writeError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}
