package bootstrap

import (
	bootstraphttp "setdb-init/internal/bootstrap/adapter/http"
	"setdb-init/internal/bootstrap/adapter/persistence/mongodb"
	"setdb-init/internal/bootstrap/config"
	"setdb-init/internal/bootstrap/domain/model"
	"setdb-init/internal/bootstrap/domain/repository"
	"setdb-init/internal/bootstrap/usecase"
	"setdb-init/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// BootstrapModule represents the complete bootstrap module
type BootstrapModule struct {
	usecase *usecase.BootstrapUsecase
	handler *bootstraphttp.BootstrapHTTPHandler
	plan    *model.Plan
}

// NewBootstrapModule wires the bootstrap module. lock may be nil, in which
// case runs are only guarded within this process.
func NewBootstrapModule(client *mongo.Client, lock repository.RunLock, cfg *config.Config, health bootstraphttp.HealthChecker, log logger.Logger) *BootstrapModule {
	if log == nil {
		log = logger.Default()
	}

	adminRepo := mongodb.NewMongoAdminRepository(client, log)

	uc := usecase.NewBootstrapUsecase(adminRepo, lock, usecase.Options{
		URI:     cfg.MongoDBURI,
		LockKey: cfg.Lock.Key,
		LockTTL: cfg.Lock.TTL,
	}, log)

	plan := PlanFromConfig(cfg)
	handler := bootstraphttp.NewBootstrapHTTPHandler(uc, plan, health, cfg.Timeout, log)

	return &BootstrapModule{
		usecase: uc,
		handler: handler,
		plan:    plan,
	}
}

// PlanFromConfig builds the provisioning plan described by cfg
func PlanFromConfig(cfg *config.Config) *model.Plan {
	return model.NewPlan(cfg.DatabaseName, cfg.AppUsername, cfg.AppPassword, cfg.AppRole,
		cfg.Collections, model.Mode(cfg.Mode))
}

// RegisterRoutes registers the status routes with the provided router
func (m *BootstrapModule) RegisterRoutes(router fiber.Router) {
	m.handler.RegisterRoutes(router)
}

// GetUsecase returns the bootstrap usecase
func (m *BootstrapModule) GetUsecase() usecase.BootstrapUsecaseInterface {
	return m.usecase
}

// Plan returns the plan built from configuration
func (m *BootstrapModule) Plan() *model.Plan {
	return m.plan
}
