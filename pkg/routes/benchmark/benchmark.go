package benchmark

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
	"github.com/IWUGERMANY/elca-sub002/pkg/utils"
)

type Service interface {
	ListSystems(ctx context.Context, activeOnly bool) ([]*models.BenchmarkSystem, error)
	GetSystem(ctx context.Context, systemID int64) (*models.BenchmarkSystem, error)
	CreateSystem(ctx context.Context, system *models.BenchmarkSystem) (*models.BenchmarkSystem, error)
	DeleteSystem(ctx context.Context, systemID int64) error
	CopySystem(ctx context.Context, systemID int64) (*models.BenchmarkSystem, error)
	ListVersions(ctx context.Context, systemID int64, activeOnly bool) ([]*models.BenchmarkVersion, error)
	GetVersion(ctx context.Context, versionID int64) (*models.BenchmarkVersion, error)
	CreateVersion(ctx context.Context, version *models.BenchmarkVersion) (*models.BenchmarkVersion, error)
	CopyVersion(ctx context.Context, versionID int64, name *string) (*models.BenchmarkVersion, error)
	DeleteVersion(ctx context.Context, versionID int64) error
	GroupBenchmark(ctx context.Context, versionID int64, scores map[string]float64) (map[string]*models.GroupBenchmarkResult, error)
	Rate(ctx context.Context, projectVariantID int64) (map[string]models.Rating, error)
	StoreProjectBenchmark(ctx context.Context, projectVariantID int64, scores map[string]int) error
}

// Handler serves benchmark systems, versions and project ratings
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register registers the benchmark routes
func (h *Handler) Register(g *echo.Group) {
	systems := g.Group("/benchmark-systems")
	systems.GET("", h.ListSystems)
	systems.POST("", h.CreateSystem)
	systems.GET("/:systemId", h.GetSystem)
	systems.DELETE("/:systemId", h.DeleteSystem)
	systems.POST("/:systemId/copy", h.CopySystem)
	systems.GET("/:systemId/versions", h.ListVersions)
	systems.POST("/:systemId/versions", h.CreateVersion)

	versions := g.Group("/benchmark-versions")
	versions.GET("/:versionId", h.GetVersion)
	versions.DELETE("/:versionId", h.DeleteVersion)
	versions.POST("/:versionId/copy", h.CopyVersion)
	versions.POST("/:versionId/group-benchmark", h.GroupBenchmark)

	variant := g.Group("/projects/:projectId/variants/:variantId")
	variant.GET("/rating", h.Rate)
	variant.PUT("/benchmarks", h.StoreProjectBenchmark)
}

type CreateSystemRequest struct {
	Name        string  `json:"name" validate:"required,max=150"`
	ModelClass  string  `json:"model_class" validate:"required,max=250"`
	IsActive    bool    `json:"is_active"`
	Description *string `json:"description,omitempty"`
}

type CreateVersionRequest struct {
	Name              string  `json:"name" validate:"required,max=150"`
	ProcessDbID       *int64  `json:"process_db_id,omitempty"`
	IsActive          bool    `json:"is_active"`
	UseReferenceModel bool    `json:"use_reference_model"`
	ProjectLifeTime   *int    `json:"project_life_time,omitempty" validate:"omitempty,gt=0"`
	ConstrClassIDs    []int64 `json:"constr_class_ids,omitempty"`
}

type CopyVersionRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=150"`
}

type GroupBenchmarkRequest struct {
	Scores map[string]float64 `json:"scores" validate:"required"`
}

type ProjectBenchmarkRequest struct {
	Scores map[string]int `json:"scores" validate:"required"`
}

// activeOnly reads the optional ?active= query flag
func activeOnly(c echo.Context) (bool, error) {
	raw := c.QueryParam("active")
	if raw == "" {
		return false, nil
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return false, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid active flag: %q", raw)
	}
	return active, nil
}

func (h *Handler) ListSystems(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.ListSystems")
	defer span.End()

	active, err := activeOnly(c)
	if err != nil {
		return err
	}

	systems, err := h.service.ListSystems(ctx, active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, systems)
}

func (h *Handler) GetSystem(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.GetSystem")
	defer span.End()

	systemID, err := utils.ParamInt64(c, "systemId")
	if err != nil {
		return err
	}

	system, err := h.service.GetSystem(ctx, systemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, system)
}

func (h *Handler) CreateSystem(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.CreateSystem")
	defer span.End()

	req, err := utils.BindRequest[CreateSystemRequest](c)
	if err != nil {
		return err
	}

	system, err := h.service.CreateSystem(ctx, &models.BenchmarkSystem{
		Name:        req.Name,
		ModelClass:  req.ModelClass,
		IsActive:    req.IsActive,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, system)
}

func (h *Handler) DeleteSystem(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.DeleteSystem")
	defer span.End()

	systemID, err := utils.ParamInt64(c, "systemId")
	if err != nil {
		return err
	}

	if err := h.service.DeleteSystem(ctx, systemID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CopySystem(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.CopySystem")
	defer span.End()

	systemID, err := utils.ParamInt64(c, "systemId")
	if err != nil {
		return err
	}

	system, err := h.service.CopySystem(ctx, systemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, system)
}

func (h *Handler) ListVersions(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.ListVersions")
	defer span.End()

	systemID, err := utils.ParamInt64(c, "systemId")
	if err != nil {
		return err
	}
	active, err := activeOnly(c)
	if err != nil {
		return err
	}

	versions, err := h.service.ListVersions(ctx, systemID, active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, versions)
}

func (h *Handler) GetVersion(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.GetVersion")
	defer span.End()

	versionID, err := utils.ParamInt64(c, "versionId")
	if err != nil {
		return err
	}

	version, err := h.service.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, version)
}

func (h *Handler) CreateVersion(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.CreateVersion")
	defer span.End()

	systemID, err := utils.ParamInt64(c, "systemId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[CreateVersionRequest](c)
	if err != nil {
		return err
	}

	version, err := h.service.CreateVersion(ctx, &models.BenchmarkVersion{
		BenchmarkSystemID: systemID,
		Name:              req.Name,
		ProcessDbID:       req.ProcessDbID,
		IsActive:          req.IsActive,
		UseReferenceModel: req.UseReferenceModel,
		ProjectLifeTime:   req.ProjectLifeTime,
		ConstrClassIDs:    req.ConstrClassIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, version)
}

// CopyVersion clones a version with all of its configuration
func (h *Handler) CopyVersion(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.CopyVersion")
	defer span.End()

	versionID, err := utils.ParamInt64(c, "versionId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[CopyVersionRequest](c)
	if err != nil {
		return err
	}

	version, err := h.service.CopyVersion(ctx, versionID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, version)
}

func (h *Handler) DeleteVersion(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.DeleteVersion")
	defer span.End()

	versionID, err := utils.ParamInt64(c, "versionId")
	if err != nil {
		return err
	}

	if err := h.service.DeleteVersion(ctx, versionID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GroupBenchmark(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.GroupBenchmark")
	defer span.End()

	versionID, err := utils.ParamInt64(c, "versionId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[GroupBenchmarkRequest](c)
	if err != nil {
		return err
	}

	results, err := h.service.GroupBenchmark(ctx, versionID, req.Scores)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

func (h *Handler) Rate(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.Rate")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}

	ratings, err := h.service.Rate(ctx, variantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ratings)
}

func (h *Handler) StoreProjectBenchmark(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "BenchmarkHandler.StoreProjectBenchmark")
	defer span.End()

	variantID, err := utils.ParamInt64(c, "variantId")
	if err != nil {
		return err
	}
	req, err := utils.BindRequest[ProjectBenchmarkRequest](c)
	if err != nil {
		return err
	}

	if err := h.service.StoreProjectBenchmark(ctx, variantID, req.Scores); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
