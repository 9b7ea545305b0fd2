package http

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/driftgate/bridge-router/internal/domain"
	"github.com/driftgate/bridge-router/internal/http/httputil"
	"github.com/driftgate/bridge-router/internal/services/engine"
)

type SwapHandler struct {
	engineSvc *engine.Service
}

func NewSwapHandler(engineSvc *engine.Service) *SwapHandler {
	return &SwapHandler{engineSvc: engineSvc}
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/token", h.swapToken)
	pub.POST("/native", h.swapNative)
	pub.POST("/permit", h.swapPermit)
}

// PathHopRequest pins one hop of a caller-supplied route.
type PathHopRequest struct {
	TokenIn     string `json:"tokenIn" binding:"required"`
	TokenOut    string `json:"tokenOut" binding:"required"`
	Family      string `json:"family" binding:"required" enums:"concentrated,stable,volatile" example:"concentrated"`
	TickSpacing int32  `json:"tickSpacing,omitempty" example:"100"`
	Stable      bool   `json:"stable,omitempty"`
}

// PermitRequest is a signature-based allowance grant executed with the swap.
type PermitRequest struct {
	Value    string `json:"value" binding:"required" example:"1000000000000000000"`
	Deadline string `json:"deadline" binding:"required" example:"1767225600"`
	V        uint8  `json:"v" binding:"required" example:"27"`
	R        string `json:"r" binding:"required"`
	S        string `json:"s" binding:"required"`
}

// SwapRequest runs one swap-and-bridge operation.
type SwapRequest struct {
	// Payer is the account funds are pulled from. Must have approved the
	// router (token entry) or be the native value sender.
	Payer string `json:"payer" binding:"required" example:"0x36c02dA8a0983159322a80FFE9F24b1acfF8B570"`

	// TokenIn is ignored for native entry.
	TokenIn string `json:"tokenIn,omitempty" example:"0x4200000000000000000000000000000000000006"`

	// AmountIn in smallest units. For native entry this is the full value
	// including the bridge fee.
	AmountIn string `json:"amountIn" binding:"required" example:"1000000000000000000"`

	// MinOut floors the terminal output. Zero applies the configured
	// slippage ceiling against the quote instead.
	MinOut string `json:"minOut,omitempty" example:"2400000000"`

	// Recipient on the destination domain, 32-byte hex.
	Recipient string `json:"recipient" binding:"required" example:"0x00000000000000000000000036c02da8a0983159322a80ffe9f24b1acff8b570"`

	// Value is the native currency supplied for the bridge fee (token and
	// permit entries).
	Value string `json:"value,omitempty" example:"50000000000000"`

	// Path pins the route. Empty lets the engine discover the best one.
	Path []PathHopRequest `json:"path,omitempty"`

	Permit *PermitRequest `json:"permit,omitempty"`
}

// SwapResponse reports one completed operation.
type SwapResponse struct {
	TokenIn    string `json:"tokenIn"`
	AmountIn   string `json:"amountIn"`
	AmountOut  string `json:"amountOut"`
	HopCount   int    `json:"hopCount"`
	Domain     uint32 `json:"domain"`
	FeePaid    string `json:"feePaid"`
	Refunded   string `json:"refunded"`
	TransferID string `json:"transferId"`
}

type parsedSwapRequest struct {
	payer     common.Address
	tokenIn   common.Address
	amountIn  *big.Int
	minOut    *big.Int
	recipient [32]byte
	value     *big.Int
	path      []domain.PathHop
	permit    *domain.Permit
}

func (h *SwapHandler) parseSwapRequest(c *gin.Context, needToken bool) (*parsedSwapRequest, bool) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return nil, false
	}

	if !common.IsHexAddress(req.Payer) {
		httputil.BadRequest(c, "invalid payer address")
		return nil, false
	}
	parsed := &parsedSwapRequest{payer: common.HexToAddress(req.Payer)}

	if needToken {
		if !common.IsHexAddress(req.TokenIn) {
			httputil.BadRequest(c, "invalid tokenIn address")
			return nil, false
		}
		parsed.tokenIn = common.HexToAddress(req.TokenIn)
		if parsed.tokenIn == domain.NativeSentinel {
			httputil.BadRequest(c, "use /swap/native for the native currency")
			return nil, false
		}
	}

	var ok bool
	parsed.amountIn, ok = new(big.Int).SetString(req.AmountIn, 10)
	if !ok || parsed.amountIn.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amountIn: must be a positive integer")
		return nil, false
	}

	parsed.minOut = new(big.Int)
	if req.MinOut != "" {
		if parsed.minOut, ok = new(big.Int).SetString(req.MinOut, 10); !ok {
			httputil.BadRequest(c, "invalid minOut")
			return nil, false
		}
	}

	recipient, err := parseBytes32(req.Recipient)
	if err != nil {
		httputil.BadRequest(c, "invalid recipient: "+err.Error())
		return nil, false
	}
	parsed.recipient = recipient

	parsed.value = new(big.Int)
	if req.Value != "" {
		if parsed.value, ok = new(big.Int).SetString(req.Value, 10); !ok || parsed.value.Sign() < 0 {
			httputil.BadRequest(c, "invalid value")
			return nil, false
		}
	}

	parsed.path, err = parsePath(req.Path)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return nil, false
	}

	if req.Permit != nil {
		permit, err := parsePermit(req.Permit)
		if err != nil {
			httputil.BadRequest(c, err.Error())
			return nil, false
		}
		parsed.permit = permit
	}

	return parsed, true
}

// swapToken godoc
// @Summary Swap a pre-approved token and bridge the proceeds
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapRequest true "Swap parameters"
// @Success 200 {object} httputil.Response{data=SwapResponse}
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/swap/token [post]
func (h *SwapHandler) swapToken(c *gin.Context) {
	parsed, ok := h.parseSwapRequest(c, true)
	if !ok {
		return
	}
	result, err := h.engineSvc.Engine().SwapAndBridgeToken(
		c.Request.Context(), parsed.payer, parsed.tokenIn, parsed.amountIn,
		parsed.path, parsed.minOut, parsed.recipient, parsed.value,
	)
	h.respond(c, result, err)
}

// swapNative godoc
// @Summary Swap native currency and bridge the proceeds
// @Description Wraps the supplied value minus the bridge fee and converts it to the target asset.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapRequest true "Swap parameters (tokenIn ignored)"
// @Success 200 {object} httputil.Response{data=SwapResponse}
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/swap/native [post]
func (h *SwapHandler) swapNative(c *gin.Context) {
	parsed, ok := h.parseSwapRequest(c, false)
	if !ok {
		return
	}
	result, err := h.engineSvc.Engine().SwapAndBridgeNative(
		c.Request.Context(), parsed.payer, parsed.amountIn,
		parsed.path, parsed.minOut, parsed.recipient,
	)
	h.respond(c, result, err)
}

// swapPermit godoc
// @Summary Swap a token with a same-call permit and bridge the proceeds
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapRequest true "Swap parameters with permit"
// @Success 200 {object} httputil.Response{data=SwapResponse}
// @Failure 400 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/swap/permit [post]
func (h *SwapHandler) swapPermit(c *gin.Context) {
	parsed, ok := h.parseSwapRequest(c, true)
	if !ok {
		return
	}
	if parsed.permit == nil {
		httputil.BadRequest(c, "permit is required")
		return
	}
	result, err := h.engineSvc.Engine().SwapAndBridgeWithPermit(
		c.Request.Context(), parsed.payer, parsed.tokenIn, parsed.amountIn, *parsed.permit,
		parsed.path, parsed.minOut, parsed.recipient, parsed.value,
	)
	h.respond(c, result, err)
}

func (h *SwapHandler) respond(c *gin.Context, result *domain.SwapResult, err error) {
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	if saveErr := h.engineSvc.Storage().SaveTransfer(result); saveErr != nil {
		log.Error().Err(saveErr).Msg("[swapHandler] failed to journal transfer")
	}

	httputil.Success(c, SwapResponse{
		TokenIn:    result.TokenIn.Hex(),
		AmountIn:   result.AmountIn.String(),
		AmountOut:  result.AmountOut.String(),
		HopCount:   result.Hops,
		Domain:     result.Domain,
		FeePaid:    result.FeePaid.String(),
		Refunded:   result.Refunded.String(),
		TransferID: fmt.Sprintf("%#x", result.TransferID),
	})
}

func parseBytes32(raw string) ([32]byte, error) {
	var out [32]byte
	b := common.FromHex(raw)
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func parsePath(hops []PathHopRequest) ([]domain.PathHop, error) {
	if len(hops) == 0 {
		return nil, nil
	}
	out := make([]domain.PathHop, len(hops))
	for i, hop := range hops {
		if !common.IsHexAddress(hop.TokenIn) || !common.IsHexAddress(hop.TokenOut) {
			return nil, fmt.Errorf("path hop %d: invalid token address", i)
		}
		family, err := parseFamily(hop.Family)
		if err != nil {
			return nil, fmt.Errorf("path hop %d: %w", i, err)
		}
		out[i] = domain.PathHop{
			TokenIn:     common.HexToAddress(hop.TokenIn),
			TokenOut:    common.HexToAddress(hop.TokenOut),
			Family:      family,
			TickSpacing: hop.TickSpacing,
			Stable:      hop.Stable,
		}
	}
	return out, nil
}

func parseFamily(raw string) (domain.PoolFamily, error) {
	switch raw {
	case "concentrated":
		return domain.FamilyConcentrated, nil
	case "stable":
		return domain.FamilyStable, nil
	case "volatile":
		return domain.FamilyVolatile, nil
	default:
		return 0, fmt.Errorf("unknown pool family %q", raw)
	}
}

func parsePermit(req *PermitRequest) (*domain.Permit, error) {
	value, ok := new(big.Int).SetString(req.Value, 10)
	if !ok || value.Sign() <= 0 {
		return nil, fmt.Errorf("invalid permit value")
	}
	deadline, ok := new(big.Int).SetString(req.Deadline, 10)
	if !ok || deadline.Sign() <= 0 {
		return nil, fmt.Errorf("invalid permit deadline")
	}
	r, err := parseBytes32(req.R)
	if err != nil {
		return nil, fmt.Errorf("invalid permit r: %w", err)
	}
	s, err := parseBytes32(req.S)
	if err != nil {
		return nil, fmt.Errorf("invalid permit s: %w", err)
	}
	return &domain.Permit{
		Value:    value,
		Deadline: deadline,
		V:        req.V,
		R:        r,
		S:        s,
	}, nil
}
