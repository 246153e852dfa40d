// Package project reads the host application's project tables. The cache never writes them.
package project

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/IWUGERMANY/elca-sub002/internal/repositories"
	"github.com/IWUGERMANY/elca-sub002/pkg/database"
	"github.com/IWUGERMANY/elca-sub002/pkg/memo"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

type ProjectRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Project, error)
	FindVariantByID(ctx context.Context, variantID int64) (*models.ProjectVariant, error)
	FindVariantsByProjectID(ctx context.Context, projectID int64) ([]*models.ProjectVariant, error)
	FindElementTypeNodeByID(ctx context.Context, nodeID int64) (*models.ElementTypeNode, error)
	FindParentByNodeID(ctx context.Context, nodeID int64) (*models.ElementTypeNode, error)
	FindElementByID(ctx context.Context, elementID int64) (*models.Element, error)
	FindElementComponentByID(ctx context.Context, componentID int64) (*models.ElementComponent, error)
	FindFinalEnergyDemandByID(ctx context.Context, id int64) (*models.FinalEnergyDemand, error)
	FindFinalEnergySupplyByID(ctx context.Context, id int64) (*models.FinalEnergySupply, error)
	FindFinalEnergyRefModelByID(ctx context.Context, id int64) (*models.FinalEnergyRefModel, error)
	FindTransportMeanByID(ctx context.Context, id int64) (*models.TransportMean, error)
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// get runs a single row query and returns nil when nothing matched.
func get[T any](ctx context.Context, r *Repository, format string, args map[string]any, message string) (*T, error) {
	query, queryArgs := database.Build(format, args)

	var dest T
	err := database.Executor(ctx, r.db).GetContext(ctx, &dest, query, queryArgs...)
	if repositories.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, args, message)
	}

	return &dest, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindByID")
	defer span.End()

	return memo.GetOrFetch(ctx, memo.Key("project", id), func(ctx context.Context) (*models.Project, error) {
		return get[models.Project](ctx, r, `SELECT id, name, process_db_id, current_variant_id, benchmark_version_id
FROM elca.projects
WHERE id = ${id}`, map[string]any{"id": id}, "failed to get project")
	})
}

func (r *Repository) FindVariantByID(ctx context.Context, variantID int64) (*models.ProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindVariantByID")
	defer span.End()

	return memo.GetOrFetch(ctx, memo.Key("project_variant", variantID), func(ctx context.Context) (*models.ProjectVariant, error) {
		return get[models.ProjectVariant](ctx, r, `SELECT id, project_id, name
FROM elca.project_variants
WHERE id = ${id}`, map[string]any{"id": variantID}, "failed to get project variant")
	})
}

func (r *Repository) FindVariantsByProjectID(ctx context.Context, projectID int64) ([]*models.ProjectVariant, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindVariantsByProjectID")
	defer span.End()

	query, args := database.Build(`SELECT id, project_id, name
FROM elca.project_variants
WHERE project_id = ${projectId}
ORDER BY id`, map[string]any{"projectId": projectID})

	var variants []*models.ProjectVariant
	if err := database.Executor(ctx, r.db).SelectContext(ctx, &variants, query, args...); err != nil {
		return nil, repositories.InternalError(ctx, r.logger, err, map[string]any{"project_id": projectID}, "failed to list project variants")
	}

	return variants, nil
}

func (r *Repository) FindElementTypeNodeByID(ctx context.Context, nodeID int64) (*models.ElementTypeNode, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindElementTypeNodeByID")
	defer span.End()

	return get[models.ElementTypeNode](ctx, r, `SELECT node_id, din_code, name, is_composite_level, lft, rgt, level
FROM elca.element_types
WHERE node_id = ${nodeId}`, map[string]any{"nodeId": nodeID}, "failed to get element type")
}

// FindParentByNodeID returns the nearest enclosing node in the element type nested set,
// or nil for the root.
func (r *Repository) FindParentByNodeID(ctx context.Context, nodeID int64) (*models.ElementTypeNode, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindParentByNodeID")
	defer span.End()

	return memo.GetOrFetch(ctx, memo.Key("element_type_parent", nodeID), func(ctx context.Context) (*models.ElementTypeNode, error) {
		return get[models.ElementTypeNode](ctx, r, `SELECT p.node_id, p.din_code, p.name, p.is_composite_level, p.lft, p.rgt, p.level
FROM elca.element_types n
    JOIN elca.element_types p ON p.lft < n.lft AND p.rgt > n.rgt
WHERE n.node_id = ${nodeId}
ORDER BY p.lft DESC
LIMIT 1`, map[string]any{"nodeId": nodeID}, "failed to get parent element type")
	})
}

func (r *Repository) FindElementByID(ctx context.Context, elementID int64) (*models.Element, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindElementByID")
	defer span.End()

	return get[models.Element](ctx, r, `SELECT id, element_type_node_id, project_variant_id, name, is_composite
FROM elca.elements
WHERE id = ${id}`, map[string]any{"id": elementID}, "failed to get element")
}

func (r *Repository) FindElementComponentByID(ctx context.Context, componentID int64) (*models.ElementComponent, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindElementComponentByID")
	defer span.End()

	return get[models.ElementComponent](ctx, r, `SELECT id, element_id
FROM elca.element_components
WHERE id = ${id}`, map[string]any{"id": componentID}, "failed to get element component")
}

func (r *Repository) FindFinalEnergyDemandByID(ctx context.Context, id int64) (*models.FinalEnergyDemand, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindFinalEnergyDemandByID")
	defer span.End()

	return get[models.FinalEnergyDemand](ctx, r, `SELECT id, project_variant_id
FROM elca.project_final_energy_demands
WHERE id = ${id}`, map[string]any{"id": id}, "failed to get final energy demand")
}

func (r *Repository) FindFinalEnergySupplyByID(ctx context.Context, id int64) (*models.FinalEnergySupply, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindFinalEnergySupplyByID")
	defer span.End()

	return get[models.FinalEnergySupply](ctx, r, `SELECT id, project_variant_id
FROM elca.project_final_energy_supplies
WHERE id = ${id}`, map[string]any{"id": id}, "failed to get final energy supply")
}

func (r *Repository) FindFinalEnergyRefModelByID(ctx context.Context, id int64) (*models.FinalEnergyRefModel, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindFinalEnergyRefModelByID")
	defer span.End()

	return get[models.FinalEnergyRefModel](ctx, r, `SELECT id, project_variant_id
FROM elca.project_final_energy_ref_models
WHERE id = ${id}`, map[string]any{"id": id}, "failed to get final energy ref model")
}

// FindTransportMeanByID resolves the project variant through the transport the mean belongs to.
func (r *Repository) FindTransportMeanByID(ctx context.Context, id int64) (*models.TransportMean, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindTransportMeanByID")
	defer span.End()

	return get[models.TransportMean](ctx, r, `SELECT m.id, t.project_variant_id
FROM elca.project_transport_means m
    JOIN elca.project_transports t ON t.id = m.project_transport_id
WHERE m.id = ${id}`, map[string]any{"id": id}, "failed to get transport mean")
}
