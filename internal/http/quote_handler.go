package http

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/driftgate/bridge-router/internal/domain"
	"github.com/driftgate/bridge-router/internal/http/httputil"
	"github.com/driftgate/bridge-router/internal/services/engine"
)

type QuoteHandler struct {
	engineSvc *engine.Service
}

func NewQuoteHandler(engineSvc *engine.Service) *QuoteHandler {
	return &QuoteHandler{engineSvc: engineSvc}
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
	pub.GET("/bridge-fee", h.getBridgeFee)
}

// QuoteRequest asks for the best route from tokenIn to the target asset.
type QuoteRequest struct {
	// Input token contract address
	TokenIn string `form:"tokenIn" binding:"required" example:"0x4200000000000000000000000000000000000006"`

	// Amount in the token's smallest unit
	AmountIn string `form:"amountIn" binding:"required" example:"1000000000000000000"`
}

// RouteHopInfo describes one pool of the quoted route.
type RouteHopInfo struct {
	PoolAddress string `json:"poolAddress" example:"0x478946BcD4a5a22b316470F5486fAfb928C0bA25"`
	Family      string `json:"family" enums:"concentrated,stable,volatile" example:"concentrated"`
	TokenIn     string `json:"tokenIn"`
	TokenOut    string `json:"tokenOut"`
	TickSpacing int32  `json:"tickSpacing,omitempty" example:"100"`
	Stable      bool   `json:"stable,omitempty"`
}

// QuoteResponse is the priced route.
type QuoteResponse struct {
	TokenIn   string         `json:"tokenIn"`
	AmountIn  string         `json:"amountIn" example:"1000000000000000000"`
	AmountOut string         `json:"amountOut" example:"2431170000"`
	HopCount  int            `json:"hopCount" example:"2"`
	Path      []string       `json:"path"`
	Hops      []RouteHopInfo `json:"hops"`
}

// BridgeFeeResponse is the current native fee for one remote delivery.
type BridgeFeeResponse struct {
	Fee             string `json:"fee" example:"42000000000000"`
	RecipientDomain uint32 `json:"recipientDomain" example:"8453"`
}

// getQuote godoc
// @Summary Quote a conversion route
// @Description Finds the highest-output route from the given token to the target asset without moving funds.
// @Tags quote
// @Produce json
// @Param tokenIn query string true "Input token address"
// @Param amountIn query string true "Input amount in smallest units"
// @Success 200 {object} httputil.Response{data=QuoteResponse}
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if !common.IsHexAddress(req.TokenIn) {
		httputil.BadRequest(c, "invalid tokenIn address")
		return
	}
	amountIn, ok := new(big.Int).SetString(req.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amountIn: must be a positive integer")
		return
	}

	route, err := h.engineSvc.Engine().QuoteSwap(c.Request.Context(), common.HexToAddress(req.TokenIn), amountIn)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.Success(c, buildQuoteResponse(req.TokenIn, amountIn, route))
}

// getBridgeFee godoc
// @Summary Quote the bridge delivery fee
// @Tags quote
// @Produce json
// @Success 200 {object} httputil.Response{data=BridgeFeeResponse}
// @Failure 500 {object} httputil.Response
// @Router /api/v1/quote/bridge-fee [get]
func (h *QuoteHandler) getBridgeFee(c *gin.Context) {
	quote, err := h.engineSvc.Engine().QuoteBridgeFee(c.Request.Context())
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, BridgeFeeResponse{
		Fee:             quote.Fee.String(),
		RecipientDomain: quote.RecipientDomain,
	})
}

func buildQuoteResponse(tokenIn string, amountIn *big.Int, route *domain.RouteCandidate) QuoteResponse {
	path := make([]string, len(route.Path))
	for i, token := range route.Path {
		path[i] = token.Hex()
	}
	hops := make([]RouteHopInfo, len(route.Pools))
	for i, pool := range route.Pools {
		hops[i] = RouteHopInfo{
			PoolAddress: pool.Address.Hex(),
			Family:      pool.Family.String(),
			TokenIn:     pool.TokenIn.Hex(),
			TokenOut:    pool.TokenOut.Hex(),
			TickSpacing: pool.TickSpacing,
			Stable:      pool.Stable,
		}
	}
	return QuoteResponse{
		TokenIn:   tokenIn,
		AmountIn:  amountIn.String(),
		AmountOut: route.AmountOut.String(),
		HopCount:  route.Hops(),
		Path:      path,
		Hops:      hops,
	}
}
