package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"linkhub/internal/middleware"
	"linkhub/internal/model"
	"linkhub/internal/service"
	"linkhub/internal/shortcode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShortLinkHandler 处理器
type ShortLinkHandler struct {
	registry *service.Registry
	resolver *service.Resolver
	clicks   *service.Accumulator
	logger   *zap.SugaredLogger
}

// NewShortLinkHandler 创建处理器实例
func NewShortLinkHandler(registry *service.Registry, resolver *service.Resolver, clicks *service.Accumulator, logger *zap.SugaredLogger) *ShortLinkHandler {
	return &ShortLinkHandler{
		registry: registry,
		resolver: resolver,
		clicks:   clicks,
		logger:   logger.Named("handler"),
	}
}

// HealthCheck 健康检查
func (h *ShortLinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// CreateShortLinkRequest 创建短链接的请求体
type CreateShortLinkRequest struct {
	URL        string     `json:"url" binding:"required,url" example:"https://github.com/gin-gonic/gin"`
	CustomCode string     `json:"custom_code" example:"my-link"`
	ExpiresAt  *time.Time `json:"expires_at" example:"2026-12-31T00:00:00Z"`
}

// ShortLinkResponse 短链接的响应体
type ShortLinkResponse struct {
	ID          uint       `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url" example:"http://localhost:8080/xxxxxx"`
	OriginalURL string     `json:"original_url"`
	ClickCount  int64      `json:"click_count"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (h *ShortLinkHandler) toResponse(c *gin.Context, link *model.ShortLink) ShortLinkResponse {
	return ShortLinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    "http://" + c.Request.Host + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		ClickCount:  link.ClickCount,
		ExpiresAt:   link.ExpiresAt,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt,
	}
}

// CreateShortLink godoc
// @Summary 创建短链接
// @Description 为一个长 URL 创建短链接，支持自定义别名和过期时间
// @Tags ShortLink
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   link  body   CreateShortLinkRequest  true  "创建参数"
// @Success 201 {object} ShortLinkResponse "成功响应"
// @Failure 400 {object} gin.H "请求无效"
// @Failure 409 {object} gin.H "别名已被占用"
// @Failure 503 {object} gin.H "短码生成暂时失败，可重试"
// @Router /api/shorten [post]
func (h *ShortLinkHandler) CreateShortLink(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	link, err := h.registry.Create(c.Request.Context(), service.CreateLinkInput{
		OriginalURL: req.URL,
		CustomCode:  req.CustomCode,
		ExpiresAt:   req.ExpiresAt,
		OwnerID:     currentUserID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL), errors.Is(err, shortcode.ErrInvalidAlias):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAliasTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "该别名已被占用，请换一个"})
		case errors.Is(err, shortcode.ErrExhausted):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "短码生成暂时失败，请稍后重试"})
		default:
			h.logger.Errorf("创建短链接失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建短链接失败"})
		}
		return
	}

	c.JSON(http.StatusCreated, h.toResponse(c, link))
}

// RedirectToOriginal godoc
// @Summary 短链接跳转
// @Description 解析短码并 302 跳转到目标地址
// @Tags ShortLink
// @Produce  html
// @Param   code  path  string  true  "短码"
// @Success 302 "跳转"
// @Failure 404 {object} gin.H "链接不存在"
// @Failure 410 {object} gin.H "链接已过期"
// @Router /{code} [get]
func (h *ShortLinkHandler) RedirectToOriginal(c *gin.Context) {
	code := c.Param("code")

	destination, err := h.resolver.Resolve(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "链接不存在或已禁用"})
		case errors.Is(err, service.ErrExpired):
			c.JSON(http.StatusGone, gin.H{"error": "链接已过期"})
		default:
			h.logger.Errorf("解析短码失败 code=%s: %v", code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "解析失败"})
		}
		return
	}

	// 点击计账异步进行，任何失败都不影响跳转
	meta := service.ClickMeta{
		IP:        middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	}
	go h.clicks.RecordClick(context.Background(), code, meta)

	c.Redirect(http.StatusFound, destination)
}

// GetLinks godoc
// @Summary 当前用户的链接列表
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {array} ShortLinkResponse
// @Router /api/links [get]
func (h *ShortLinkHandler) GetLinks(c *gin.Context) {
	links, err := h.registry.ListByOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.logger.Errorf("查询链接列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取链接失败"})
		return
	}

	resp := make([]ShortLinkResponse, 0, len(links))
	for i := range links {
		resp = append(resp, h.toResponse(c, &links[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetLink godoc
// @Summary 链接详情
// @Description 返回链接详情，点击数合并了尚未回写的增量
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Param   code  path  string  true  "短码"
// @Success 200 {object} ShortLinkResponse
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/links/{code} [get]
func (h *ShortLinkHandler) GetLink(c *gin.Context) {
	code := c.Param("code")
	link, err := h.registry.GetOwned(c.Request.Context(), code, currentUserID(c))
	if err != nil {
		h.respondLinkError(c, code, err)
		return
	}

	resp := h.toResponse(c, link)
	// 合并待回写的增量，读不到就只报已落库的数
	if pending, err := h.clicks.Pending(c.Request.Context(), code); err == nil {
		resp.ClickCount += pending
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateShortLinkRequest 更新短链接的请求体
type UpdateShortLinkRequest struct {
	URL         *string    `json:"url" example:"https://example.com/new"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

// UpdateLink godoc
// @Summary 更新短链接
// @Description 修改目标地址和/或过期时间，短码不可变
// @Tags ShortLink
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   code  path  string  true  "短码"
// @Param   link  body  UpdateShortLinkRequest  true  "更新参数"
// @Success 200 {object} ShortLinkResponse
// @Failure 400 {object} gin.H "请求无效"
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/links/{code} [patch]
func (h *ShortLinkHandler) UpdateLink(c *gin.Context) {
	code := c.Param("code")
	var req UpdateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	link, err := h.registry.Update(c.Request.Context(), code, currentUserID(c), service.UpdateLinkInput{
		OriginalURL: req.URL,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.respondLinkError(c, code, err)
		return
	}

	c.JSON(http.StatusOK, h.toResponse(c, link))
}

// DeleteLink godoc
// @Summary 删除短链接
// @Description 删除链接并级联删除点击明细，属主或管理员可操作
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Param   code  path  string  true  "短码"
// @Success 200 {object} gin.H "删除成功"
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/links/{code} [delete]
func (h *ShortLinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")
	err := h.registry.Delete(c.Request.Context(), code, currentUserID(c), isAdmin(c))
	if err != nil {
		h.respondLinkError(c, code, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// GetLinkClicks godoc
// @Summary 链接的点击明细
// @Tags Analytics
// @Security ApiKeyAuth
// @Produce  json
// @Param   code  path  string  true  "短码"
// @Success 200 {array} model.ClickRecord
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/links/{code}/clicks [get]
func (h *ShortLinkHandler) GetLinkClicks(c *gin.Context) {
	code := c.Param("code")
	records, err := h.registry.RecentClicks(c.Request.Context(), code, currentUserID(c), 50)
	if err != nil {
		h.respondLinkError(c, code, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetStats godoc
// @Summary 当前用户的汇总统计
// @Tags ShortLink
// @Security ApiKeyAuth
// @Produce  json
// @Success 200 {object} service.OwnerStats
// @Router /api/stats [get]
func (h *ShortLinkHandler) GetStats(c *gin.Context) {
	stats, err := h.registry.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.logger.Errorf("查询统计失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取统计失败"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ShortLinkHandler) respondLinkError(c *gin.Context, code string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "链接不存在"})
		return
	}
	h.logger.Errorf("操作短链接失败 code=%s: %v", code, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "操作失败"})
}

// currentUserID 从认证中间件注入的上下文取用户ID
func currentUserID(c *gin.Context) uint {
	if id, ok := c.Get("user_id"); ok {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

func isAdmin(c *gin.Context) bool {
	role, ok := c.Get("role")
	return ok && role == "admin"
}
