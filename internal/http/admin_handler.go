package http

import (
	"crypto/subtle"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/driftgate/bridge-router/internal/http/httputil"
	"github.com/driftgate/bridge-router/internal/services/engine"
)

// AdminHandler exposes the owner-restricted configuration endpoints and the
// transfer journal.
type AdminHandler struct {
	engineSvc *engine.Service
}

func NewAdminHandler(engineSvc *engine.Service) *AdminHandler {
	return &AdminHandler{engineSvc: engineSvc}
}

func (h *AdminHandler) Root() string {
	return "/router"
}

func (h *AdminHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	admin.Use(h.ownerAuth())
	admin.GET("/settings", h.getSettings)
	admin.PUT("/settings", h.updateSettings)
	admin.GET("/transfers", h.listTransfers)
}

func (h *AdminHandler) ownerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		expected := h.engineSvc.OwnerToken()
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			httputil.Unauthorized(c, "owner token required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SettingsResponse mirrors the live configuration.
type SettingsResponse struct {
	CLFactories           []string `json:"clFactories"`
	TickSpacings          []int32  `json:"tickSpacings"`
	CPFactory             string   `json:"cpFactory"`
	CPRouter              string   `json:"cpRouter"`
	WrappedNative         string   `json:"wrappedNative"`
	TargetAsset           string   `json:"targetAsset"`
	PrimaryIntermediate   string   `json:"primaryIntermediate"`
	SecondaryIntermediate string   `json:"secondaryIntermediate"`
	BridgeHub             string   `json:"bridgeHub"`
	RecipientDomain       uint32   `json:"recipientDomain"`
	BridgeGasLimit        string   `json:"bridgeGasLimit"`
	Finality              uint8    `json:"finality"`
	DeadlineSeconds       int64    `json:"deadlineSeconds"`
	MaxSlippageBps        uint16   `json:"maxSlippageBps"`
}

// UpdateSettingsRequest carries partial updates; empty fields are left alone.
type UpdateSettingsRequest struct {
	BridgeHub             string   `json:"bridgeHub,omitempty"`
	CPRouter              string   `json:"cpRouter,omitempty"`
	CPFactory             string   `json:"cpFactory,omitempty"`
	CLFactories           []string `json:"clFactories,omitempty"`
	PrimaryIntermediate   string   `json:"primaryIntermediate,omitempty"`
	SecondaryIntermediate string   `json:"secondaryIntermediate,omitempty"`
	RecipientDomain       uint32   `json:"recipientDomain,omitempty"`
	BridgeGasLimit        int64    `json:"bridgeGasLimit,omitempty"`
	Finality              *uint8   `json:"finality,omitempty"`
	DeadlineSeconds       int64    `json:"deadlineSeconds,omitempty"`
	MaxSlippageBps        *uint16  `json:"maxSlippageBps,omitempty"`
}

// getSettings godoc
// @Summary Read the live router configuration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httputil.Response{data=SettingsResponse}
// @Failure 401 {object} httputil.Response
// @Router /api/v1/admin/router/settings [get]
func (h *AdminHandler) getSettings(c *gin.Context) {
	s := h.engineSvc.Engine().Settings().Snapshot()

	factories := make([]string, len(s.CLFactories))
	for i, a := range s.CLFactories {
		factories[i] = a.Hex()
	}
	httputil.Success(c, SettingsResponse{
		CLFactories:           factories,
		TickSpacings:          s.TickSpacings,
		CPFactory:             s.CPFactory.Hex(),
		CPRouter:              s.CPRouter.Hex(),
		WrappedNative:         s.WrappedNative.Hex(),
		TargetAsset:           s.TargetAsset.Hex(),
		PrimaryIntermediate:   s.PrimaryIntermediate.Hex(),
		SecondaryIntermediate: s.SecondaryIntermediate.Hex(),
		BridgeHub:             s.BridgeHub.Hex(),
		RecipientDomain:       s.RecipientDomain,
		BridgeGasLimit:        s.BridgeGasLimit.String(),
		Finality:              s.Finality,
		DeadlineSeconds:       s.DeadlineSeconds,
		MaxSlippageBps:        s.MaxSlippageBps,
	})
}

// updateSettings godoc
// @Summary Update the router configuration
// @Description Applies the supplied fields; omitted fields are unchanged. Changes persist across restarts.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateSettingsRequest true "Fields to update"
// @Success 200 {object} httputil.Response{data=SettingsResponse}
// @Failure 400 {object} httputil.Response
// @Failure 401 {object} httputil.Response
// @Router /api/v1/admin/router/settings [put]
func (h *AdminHandler) updateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	store := h.engineSvc.Engine().Settings()

	if req.BridgeHub != "" {
		if !common.IsHexAddress(req.BridgeHub) {
			httputil.BadRequest(c, "invalid bridgeHub address")
			return
		}
		if err := store.SetBridgeHub(common.HexToAddress(req.BridgeHub)); err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
	}
	if req.CPRouter != "" {
		if !common.IsHexAddress(req.CPRouter) {
			httputil.BadRequest(c, "invalid cpRouter address")
			return
		}
		if err := store.SetCPRouter(common.HexToAddress(req.CPRouter)); err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
	}
	if req.CPFactory != "" {
		if !common.IsHexAddress(req.CPFactory) {
			httputil.BadRequest(c, "invalid cpFactory address")
			return
		}
		if err := store.SetCPFactory(common.HexToAddress(req.CPFactory)); err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
	}
	if len(req.CLFactories) > 0 {
		factories := make([]common.Address, len(req.CLFactories))
		for i, raw := range req.CLFactories {
			if !common.IsHexAddress(raw) {
				httputil.BadRequest(c, "invalid clFactories entry: "+raw)
				return
			}
			factories[i] = common.HexToAddress(raw)
		}
		if err := store.SetCLFactories(factories); err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
	}
	if req.PrimaryIntermediate != "" {
		if !common.IsHexAddress(req.PrimaryIntermediate) {
			httputil.BadRequest(c, "invalid primaryIntermediate address")
			return
		}
		secondary := h.engineSvc.Engine().Settings().Snapshot().SecondaryIntermediate
		if req.SecondaryIntermediate != "" {
			if !common.IsHexAddress(req.SecondaryIntermediate) {
				httputil.BadRequest(c, "invalid secondaryIntermediate address")
				return
			}
			secondary = common.HexToAddress(req.SecondaryIntermediate)
		}
		if err := store.SetIntermediates(common.HexToAddress(req.PrimaryIntermediate), secondary); err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
	}
	if req.RecipientDomain != 0 {
		if err := store.SetRecipientDomain(req.RecipientDomain); err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
	}
	if req.BridgeGasLimit != 0 {
		store.SetBridgeGasLimit(req.BridgeGasLimit)
	}
	if req.Finality != nil {
		store.SetFinality(*req.Finality)
	}
	if req.DeadlineSeconds > 0 {
		store.SetDeadlineSeconds(req.DeadlineSeconds)
	}
	if req.MaxSlippageBps != nil {
		store.SetMaxSlippageBps(*req.MaxSlippageBps)
	}

	h.getSettings(c)
}

// listTransfers godoc
// @Summary List journaled transfers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httputil.Response
// @Failure 401 {object} httputil.Response
// @Router /api/v1/admin/router/transfers [get]
func (h *AdminHandler) listTransfers(c *gin.Context) {
	transfers, err := h.engineSvc.Storage().LoadAllTransfers()
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, transfers)
}
