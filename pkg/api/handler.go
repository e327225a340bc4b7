// 文件: pkg/api/handler.go
// HTTP 接口层 (gin)
//
// 路由:
//   POST   /api/v1/orders              下单
//   GET    /api/v1/orders/:id          查单
//   POST   /api/v1/orders/:id/execute  执行
//   DELETE /api/v1/orders/:id          撤单
//   GET    /api/v1/portfolios/:id      组合快照
//   GET    /api/v1/portfolios/:id/journals  流水查询 (接入流水落库时)
//
// 错误映射:
//   资金/持仓不足、非法输入、状态冲突 -> 400
//   订单不存在                        -> 404
//   其余                              -> 500

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"mono.com/pkg/buyingpower"
	"mono.com/pkg/inventory"
	"mono.com/pkg/journal"
	"mono.com/pkg/marketdata"
	"mono.com/pkg/order"
	"mono.com/pkg/portfolio"
	"mono.com/pkg/trading"
)

var (
	errInvalidSide  = errors.New("side must be BUY or SELL")
	errInvalidLimit = errors.New("limit must be a positive integer")
)

// Handler HTTP 处理器
type Handler struct {
	router     *gin.Engine
	trading    *trading.Service
	portfolios *portfolio.Service
	journals   journal.Repository // 可为 nil (未接流水落库)
}

// NewHandler 创建处理器并注册路由
func NewHandler(tradingSvc *trading.Service, portfolioSvc *portfolio.Service, journalRepo journal.Repository) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:     router,
		trading:    tradingSvc,
		portfolios: portfolioSvc,
		journals:   journalRepo,
	}
	h.registerRoutes()
	return h
}

// ServeHTTP 实现 http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	v1 := h.router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", h.createOrder)
			orders.GET("/:id", h.getOrder)
			orders.POST("/:id/execute", h.executeOrder)
			orders.DELETE("/:id", h.cancelOrder)
		}

		v1.GET("/portfolios/:id", h.getPortfolio)
		if h.journals != nil {
			v1.GET("/portfolios/:id/journals", h.getJournals)
		}
	}
}

// =============================================================================
// 订单
// =============================================================================

// createOrderPayload 下单请求体
type createOrderPayload struct {
	PortfolioID  string `json:"portfolio_id" binding:"required"`
	InstrumentID string `json:"instrument_id" binding:"required"`
	Side         string `json:"side" binding:"required"` // BUY / SELL
	Quantity     string `json:"quantity" binding:"required"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var payload createOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	side, ok := order.ParseSide(payload.Side)
	if !ok {
		writeError(c, http.StatusBadRequest, errInvalidSide)
		return
	}

	quantity, err := decimal.NewFromString(payload.Quantity)
	if err != nil {
		writeError(c, http.StatusBadRequest, inventory.ErrInvalidQuantity)
		return
	}

	created, err := h.trading.CreateOrder(c.Request.Context(), trading.CreateOrderRequest{
		PortfolioID:  payload.PortfolioID,
		InstrumentID: payload.InstrumentID,
		Side:         side,
		Quantity:     quantity,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := parseOrderID(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	o, err := h.trading.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) executeOrder(c *gin.Context) {
	orderID, err := parseOrderID(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	executed, err := h.trading.ExecuteOrder(c.Request.Context(), orderID)
	if err != nil {
		writeBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, executed)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, err := parseOrderID(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	cancelled, err := h.trading.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		writeBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

// =============================================================================
// 组合
// =============================================================================

func (h *Handler) getPortfolio(c *gin.Context) {
	view, err := h.portfolios.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) getJournals(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(c, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}

	records, err := h.journals.ListByPortfolio(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeBusinessError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// =============================================================================
// 辅助
// =============================================================================

func parseOrderID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// writeBusinessError 业务错误映射为 HTTP 状态码
func writeBusinessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(c, http.StatusNotFound, err)
	case errors.Is(err, buyingpower.ErrInsufficientFunds),
		errors.Is(err, buyingpower.ErrInvalidAmount),
		errors.Is(err, inventory.ErrInsufficientInventory),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidState),
		errors.Is(err, marketdata.ErrUnknownInstrument):
		writeError(c, http.StatusBadRequest, err)
	default:
		writeError(c, http.StatusInternalServerError, err)
	}
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
