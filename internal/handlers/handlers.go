package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"ibnelve/api/internal/config"
	"ibnelve/api/internal/middleware"
	"ibnelve/api/internal/models"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/security"
	"ibnelve/api/internal/service"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	tokens    *security.TokenService
	auth      *service.AuthService
	equipment *service.EquipmentService
	db        *pgxpool.Pool
	users     *repository.UserRepository
	roles     *repository.RoleRepository
	tenants   *repository.TenantRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)

	tokens := security.NewTokenService(cfg.Security)
	auth := service.NewAuthService(userRepo, cfg, log)
	equipment := service.NewEquipmentService(equipmentRepo, log)

	return HandlerSet{
		log:       log,
		cfg:       cfg,
		tokens:    tokens,
		auth:      auth,
		equipment: equipment,
		db:        db,
		users:     userRepo,
		roles:     roleRepo,
		tenants:   tenantRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/validate-token", h.ValidateToken)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.tokens, h.users))
		protected.GET("/me", h.Me)
		protected.POST("/logout", h.Logout)
	}

	equipamentos := v1.Group("/equipamentos")
	equipamentos.Use(middleware.Auth(h.tokens, h.users))
	equipamentos.GET("", h.ListEquipment)
	equipamentos.GET("/numero-controle", h.GetEquipmentByControlNumber)
	equipamentos.GET("/:id", h.GetEquipment)
	equipamentos.POST("", h.CreateEquipment)
	equipamentos.PUT("/:id", h.UpdateEquipment)
	equipamentos.DELETE("/:id",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager), h.DeleteEquipment)
	equipamentos.DELETE("/:id/permanente",
		middleware.RequireRoles(models.RoleAdmin), h.PurgeEquipment)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.tokens, h.users),
		middleware.RequireRoles(models.RoleAdmin),
	)
	admin.GET("/tenants", h.ListTenants)
	admin.POST("/tenants", h.CreateTenant)
	admin.POST("/usuarios", h.CreateUser)
}
