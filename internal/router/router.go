package router

import (
	"context"
	"net/http"
	"time"

	"money-layer/internal/access"
	"money-layer/internal/auth"
	"money-layer/internal/config"
	"money-layer/internal/handler"
	"money-layer/internal/ledger"
	"money-layer/internal/logging"
	"money-layer/internal/middleware"
	"money-layer/internal/store"
	"money-layer/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	DB       *gorm.DB
	Users    *store.UserStore
	Audit    *store.AuditStore
	Resolver *auth.Resolver
	Access   *access.Controller
	Ledger   *ledger.Service
	Logger   *logging.Logger
}

// SetupRouter configures the gin engine and every API route.
func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			util.Error(c, http.StatusServiceUnavailable, util.CodeUnavailable, "database unavailable")
			return
		}
		util.Success(c, util.Response{"status": "ok"})
	})

	cost := cfg.Security.BcryptCost

	// public
	authHandler := handler.NewAuthHandler(d.Users, d.Resolver, cost)
	r.POST("/signup", authHandler.Signup)
	r.POST("/auth/login", authHandler.Login)
	r.POST("/auth/google", authHandler.Google)

	protected := r.Group("")
	protected.Use(
		middleware.AuthMiddleware(d.Resolver),
		middleware.AuditMiddleware(d.Audit, d.Logger),
	)

	txHandler := handler.NewTransactionHandler(d.Ledger)
	protected.POST("/lancar/", txHandler.Lancar)
	protected.GET("/extrato", txHandler.Extrato)
	protected.GET("/saldo", txHandler.Saldo)
	protected.GET("/transacao/:id", txHandler.Get)
	protected.DELETE("/transacao/:id", txHandler.Delete)

	exportHandler := handler.NewExportHandler(d.Ledger, d.Logger)
	protected.GET("/extrato/export.csv", exportHandler.ExportCSV)
	protected.GET("/extrato/export.xlsx", exportHandler.ExportXLSX)

	profileHandler := handler.NewProfileHandler(d.Users, d.Access, d.Resolver, cost)
	protected.GET("/usuario/perfil", profileHandler.GetProfile)
	protected.PUT("/usuario/perfil", profileHandler.UpdateProfile)
	protected.PUT("/usuario/senha", profileHandler.ChangePassword)

	userHandler := handler.NewUserHandler(d.Users, d.Access, cost)
	protected.GET("/usuario/me", userHandler.GetMe)
	protected.POST("/admin/usuarios", userHandler.CreateStaff)

	logHandler := handler.NewLogHandler(d.Audit)
	protected.GET("/usuario/atividade", logHandler.ListLogs)

	return r
}
