package cache

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

// Service is the part of the cache service the API exposes.
type Service interface {
	GetTree(ctx context.Context, projectVariantID int64) (*models.CacheTreeNode, error)
	Refresh(ctx context.Context, projectID int64) (*models.CacheRefresh, error)
	RefreshProjectVariant(ctx context.Context, projectVariantID int64) (*models.CacheRefresh, error)
	RefreshElementTypeTree(ctx context.Context, projectVariantID, elementTypeNodeID int64) (*models.CacheRefresh, error)
	Check(ctx context.Context, projectID int64) (*models.CacheCheck, error)
	CloneProjectVariant(ctx context.Context, srcProjectVariantID, newProjectVariantID int64, maps models.CloneMaps) (*models.CacheProjectVariant, error)
	CheckProjectVariant(ctx context.Context, projectID, projectVariantID int64) error

	StoreElement(ctx context.Context, node *models.CacheElement) (*models.CacheElement, error)
	StoreElementComponent(ctx context.Context, node *models.CacheElementComponent) (*models.CacheElementComponent, error)
	RemoveElementComponent(ctx context.Context, elementComponentID int64) error
	StoreFinalEnergyDemand(ctx context.Context, node *models.CacheFinalEnergyDemand) (*models.CacheFinalEnergyDemand, error)
	StoreFinalEnergySupply(ctx context.Context, node *models.CacheFinalEnergySupply) (*models.CacheFinalEnergySupply, error)
	StoreFinalEnergyRefModel(ctx context.Context, node *models.CacheFinalEnergyRefModel) (*models.CacheFinalEnergyRefModel, error)
	StoreTransportMean(ctx context.Context, node *models.CacheTransportMean, includeInLca bool) (*models.CacheTransportMean, error)
	RemoveFinalEnergyDemands(ctx context.Context, projectVariantID int64) error
	RemoveFinalEnergySupplies(ctx context.Context, projectVariantID int64) error
	RemoveFinalEnergyRefModels(ctx context.Context, projectVariantID int64) error
	RemoveTransportMeans(ctx context.Context, projectVariantID int64) error
	StoreItemIndicators(ctx context.Context, itemID int64, results *models.IndicatorResults, zeroValues, isPartial bool) error
}

// Handler serves the cache tree API
type Handler struct {
	service Service
	logger  ectologger.Logger
}

func NewHandler(service Service, logger ectologger.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the cache routes
func (h *Handler) Register(g *echo.Group) {
	project := g.Group("/projects/:projectId")
	project.POST("/cache/refresh", h.Refresh)
	project.GET("/cache/check", h.Check)

	variant := project.Group("/variants/:variantId/cache", h.requireProjectVariant)
	variant.GET("", h.GetTree)
	variant.POST("/refresh", h.RefreshProjectVariant)
	variant.POST("/element-types/:elementTypeNodeId/refresh", h.RefreshElementTypeTree)
	variant.POST("/clone", h.Clone)
	variant.DELETE("/:nodeType", h.RemoveNodes)

	nodes := g.Group("/cache")
	nodes.PUT("/elements/:elementId", h.StoreElement)
	nodes.PUT("/element-components/:elementComponentId", h.StoreElementComponent)
	nodes.DELETE("/element-components/:elementComponentId", h.RemoveElementComponent)
	nodes.PUT("/final-energy-demands/:finalEnergyDemandId", h.StoreFinalEnergyDemand)
	nodes.PUT("/final-energy-supplies/:finalEnergySupplyId", h.StoreFinalEnergySupply)
	nodes.PUT("/final-energy-ref-models/:finalEnergyRefModelId", h.StoreFinalEnergyRefModel)
	nodes.PUT("/transport-means/:transportMeanId", h.StoreTransportMean)
	nodes.PUT("/items/:itemId/indicators", h.StoreIndicators)
}

// ElementRequest is the payload of a cached element
type ElementRequest struct {
	CompositeItemID *int64   `json:"composite_item_id,omitempty"`
	Mass            *float64 `json:"mass,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	RefUnit         *string  `json:"ref_unit,omitempty" validate:"omitempty,max=10"`
}

// ElementComponentRequest is the payload of a cached element component
type ElementComponentRequest struct {
	Mass            *float64 `json:"mass,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	RefUnit         *string  `json:"ref_unit,omitempty" validate:"omitempty,max=10"`
	NumReplacements *int     `json:"num_replacements,omitempty" validate:"omitempty,gte=0"`
}

// QuantityRequest is the payload of the energy nodes
type QuantityRequest struct {
	Quantity *float64 `json:"quantity,omitempty"`
	RefUnit  *string  `json:"ref_unit,omitempty" validate:"omitempty,max=10"`
}

type TransportMeanRequest struct {
	QuantityRequest
	IncludeInLca bool `json:"include_in_lca"`
}

type IndicatorsRequest struct {
	Results    models.IndicatorResults `json:"results"`
	ZeroValues bool                    `json:"zero_values"`
	IsPartial  bool                    `json:"is_partial"`
}

type CloneRequest struct {
	TargetVariantID int64            `json:"target_variant_id" validate:"required,gt=0"`
	Maps            models.CloneMaps `json:"maps"`
}

// requireProjectVariant answers 404 for variants of another project.
func (h *Handler) requireProjectVariant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		projectID, err := utils.ParamInt64(c, "projectId")
		if err != nil {
			return err
		}
		variantID, err := utils.ParamInt64(c, "variantId")
		if err != nil {
			return err
		}

		if err := h.service.CheckProjectVariant(c.Request().Context(), projectID, variantID); err != nil {
			return err
		}
		return next(c)
	}
}

func (h *Handler) GetTree(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.GetTree")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}

	tree, err := h.service.GetTree(ctx, variantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tree)
}

func (h *Handler) Refresh(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.Refresh")
	defer span.End()

	projectID, err := utils.ParamInt64(c, "projectId")
	if err != nil {
		return err
	}

	result, err := h.service.Refresh(ctx, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RefreshProjectVariant(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.RefreshProjectVariant")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}

	result, err := h.service.RefreshProjectVariant(ctx, variantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RefreshElementTypeTree(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.RefreshElementTypeTree")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}
	nodeID, err := utils.ParamInt64(c, "elementTypeNodeId")
	if err != nil {
		return err
	}

	result, err := h.service.RefreshElementTypeTree(ctx, variantID, nodeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Check(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.Check")
	defer span.End()

	projectID, err := utils.ParamInt64(c, "projectId")
	if err != nil {
		return err
	}

	check, err := h.service.Check(ctx, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, check)
}

// Clone copies the cache tree of the variant onto the target variant
func (h *Handler) Clone(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.Clone")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[CloneRequest](c)
	if err != nil {
		return err
	}

	root, err := h.service.CloneProjectVariant(ctx, variantID, req.TargetVariantID, req.Maps)
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"source_project_variant_id": variantID,
		"project_variant_id":        req.TargetVariantID,
	}).Info("Cloned cache via API")

	return c.JSON(http.StatusCreated, root)
}

// RemoveNodes drops every node of one type below the variant
func (h *Handler) RemoveNodes(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.RemoveNodes")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}

	var remove func(ctx context.Context, projectVariantID int64) error
	switch c.Param("nodeType") {
	case "final-energy-demands":
		remove = h.service.RemoveFinalEnergyDemands
	case "final-energy-supplies":
		remove = h.service.RemoveFinalEnergySupplies
	case "final-energy-ref-models":
		remove = h.service.RemoveFinalEnergyRefModels
	case "transport-means":
		remove = h.service.RemoveTransportMeans
	default:
		return httperror.NewHTTPErrorf(http.StatusNotFound, "unknown cache node type %q", c.Param("nodeType"))
	}

	if err := remove(ctx, variantID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) StoreElement(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreElement")
	defer span.End()

	elementID, err := utils.ParamInt64(c, "elementId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[ElementRequest](c)
	if err != nil {
		return err
	}

	node, err := h.service.StoreElement(ctx, &models.CacheElement{
		ElementID:       elementID,
		CompositeItemID: req.CompositeItemID,
		Mass:            req.Mass,
		Quantity:        req.Quantity,
		RefUnit:         req.RefUnit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) StoreElementComponent(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreElementComponent")
	defer span.End()

	componentID, err := utils.ParamInt64(c, "elementComponentId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[ElementComponentRequest](c)
	if err != nil {
		return err
	}

	node, err := h.service.StoreElementComponent(ctx, &models.CacheElementComponent{
		ElementComponentID: componentID,
		Mass:               req.Mass,
		Quantity:           req.Quantity,
		RefUnit:            req.RefUnit,
		NumReplacements:    req.NumReplacements,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) RemoveElementComponent(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.RemoveElementComponent")
	defer span.End()

	componentID, err := utils.ParamInt64(c, "elementComponentId")
	if err != nil {
		return err
	}

	if err := h.service.RemoveElementComponent(ctx, componentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) StoreFinalEnergyDemand(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreFinalEnergyDemand")
	defer span.End()

	id, err := utils.ParamInt64(c, "finalEnergyDemandId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[QuantityRequest](c)
	if err != nil {
		return err
	}

	node, err := h.service.StoreFinalEnergyDemand(ctx, &models.CacheFinalEnergyDemand{
		FinalEnergyDemandID: id,
		Quantity:            req.Quantity,
		RefUnit:             req.RefUnit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) StoreFinalEnergySupply(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreFinalEnergySupply")
	defer span.End()

	id, err := utils.ParamInt64(c, "finalEnergySupplyId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[QuantityRequest](c)
	if err != nil {
		return err
	}

	node, err := h.service.StoreFinalEnergySupply(ctx, &models.CacheFinalEnergySupply{
		FinalEnergySupplyID: id,
		Quantity:            req.Quantity,
		RefUnit:             req.RefUnit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) StoreFinalEnergyRefModel(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreFinalEnergyRefModel")
	defer span.End()

	id, err := utils.ParamInt64(c, "finalEnergyRefModelId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[QuantityRequest](c)
	if err != nil {
		return err
	}

	node, err := h.service.StoreFinalEnergyRefModel(ctx, &models.CacheFinalEnergyRefModel{
		FinalEnergyRefModelID: id,
		Quantity:              req.Quantity,
		RefUnit:               req.RefUnit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

func (h *Handler) StoreTransportMean(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreTransportMean")
	defer span.End()

	id, err := utils.ParamInt64(c, "transportMeanId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[TransportMeanRequest](c)
	if err != nil {
		return err
	}

	node, err := h.service.StoreTransportMean(ctx, &models.CacheTransportMean{
		TransportMeanID: id,
		Quantity:        req.Quantity,
		RefUnit:         req.RefUnit,
	}, req.IncludeInLca)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, node)
}

// StoreIndicators writes one life cycle module's values onto a cache item
func (h *Handler) StoreIndicators(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "CacheHandler.StoreIndicators")
	defer span.End()

	itemID, err := utils.ParamInt64(c, "itemId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[IndicatorsRequest](c)
	if err != nil {
		return err
	}

	if err := h.service.StoreItemIndicators(ctx, itemID, &req.Results, req.ZeroValues, req.IsPartial); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
