package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agendahq/backoffice/internal/audit"
	"github.com/agendahq/backoffice/internal/config"
	"github.com/agendahq/backoffice/internal/handlers"
	"github.com/agendahq/backoffice/internal/infra/lock"
	infraRepo "github.com/agendahq/backoffice/internal/infra/repository"
	"github.com/agendahq/backoffice/internal/metrics"
	"github.com/agendahq/backoffice/internal/middleware"
	"github.com/agendahq/backoffice/internal/notify"
	ucAppointment "github.com/agendahq/backoffice/internal/usecase/appointment"
	ucSchedule "github.com/agendahq/backoffice/internal/usecase/schedule"
)

// AgendaService is the subscription service that unlocks the agenda routes.
const AgendaService = "agenda"

// Deps are the long-lived singletons built by main.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Locker   lock.Locker
	Notifier *notify.Dispatcher
	Hub      *notify.Hub
	Audit    *audit.Dispatcher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORSMiddleware(d.Config.CORSAllowedOrigins))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// INFRA
	// ======================================================
	repo := infraRepo.NewAppointmentGormRepository(d.DB)

	// ======================================================
	// USE CASES - AGENDA
	// ======================================================
	createAppointmentUC := ucAppointment.NewCreateAppointment(repo, d.Locker, d.Notifier, d.Audit, d.Metrics, d.Logger)
	updateStatusUC := ucAppointment.NewUpdateStatus(repo, d.Notifier, d.Audit, d.Metrics)
	listAppointmentsUC := ucAppointment.NewListAppointments(repo)
	availabilityUC := ucAppointment.NewGetAvailability(repo)
	logProductUC := ucAppointment.NewLogProductUsage(repo, d.Audit)
	listProductsUC := ucAppointment.NewListProductUsage(repo)

	// ======================================================
	// USE CASES - SCHEDULE
	// ======================================================
	scheduleUC := handlers.ScheduleUseCases{
		GetConfig:      ucSchedule.NewGetConfig(repo),
		SaveConfig:     ucSchedule.NewSaveConfig(repo, d.Audit),
		ResolveDay:     ucSchedule.NewResolveDay(repo),
		CreateHoliday:  ucSchedule.NewCreateHoliday(repo, d.Audit),
		ListHolidays:   ucSchedule.NewListHolidays(repo),
		DeleteHoliday:  ucSchedule.NewDeleteHoliday(repo, d.Audit),
		SaveOverride:   ucSchedule.NewSaveOverride(repo, d.Audit),
		ListOverrides:  ucSchedule.NewListOverrides(repo),
		DeleteOverride: ucSchedule.NewDeleteOverride(repo, d.Audit),
	}

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, d.Config)
	meHandler := handlers.NewMeHandler(d.DB)
	clientHandler := handlers.NewClientHandler(d.DB)
	productHandler := handlers.NewProductHandler(d.DB)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	agendaHandler := handlers.NewAgendaHandler(
		createAppointmentUC,
		updateStatusUC,
		listAppointmentsUC,
		availabilityUC,
		logProductUC,
		listProductsUC,
		d.Logger,
	)
	scheduleHandler := handlers.NewScheduleHandler(scheduleUC, d.Logger)
	notificationsHandler := handlers.NewNotificationsHandler(d.Hub, repo, d.Logger)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(d.Config))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.GET("/me/account", meHandler.GetAccount)
			secured.PATCH("/me/account", meHandler.UpdateAccount)

			secured.GET("/clients", clientHandler.List)
			secured.POST("/clients", clientHandler.Create)

			secured.GET("/products", productHandler.List)
			secured.POST("/products", productHandler.Create)
			secured.PATCH("/products/:id", productHandler.Update)

			secured.GET("/audit-logs", auditLogsHandler.List)
		}

		// ------------------------------
		// AGENDA (assinatura)
		// ------------------------------
		agenda := api.Group("/agenda")
		agenda.Use(middleware.AuthMiddleware(d.Config), middleware.RequireService(repo, AgendaService))
		{
			agenda.POST("", agendaHandler.Create)
			agenda.GET("", agendaHandler.List)
			agenda.PATCH("/:id", agendaHandler.UpdateStatus)
			agenda.POST("/:id/products", agendaHandler.LogProduct)
			agenda.GET("/:id/products", agendaHandler.ListProducts)

			agenda.GET("/availability", agendaHandler.Availability)
			agenda.GET("/schedule", scheduleHandler.Resolve)

			agenda.GET("/config", scheduleHandler.GetConfig)
			agenda.PUT("/config", scheduleHandler.SaveConfig)

			agenda.GET("/holidays", scheduleHandler.ListHolidays)
			agenda.POST("/holidays", scheduleHandler.CreateHoliday)
			agenda.DELETE("/holidays/:id", scheduleHandler.DeleteHoliday)

			agenda.GET("/overrides", scheduleHandler.ListOverrides)
			agenda.PUT("/overrides", scheduleHandler.SaveOverride)
			agenda.DELETE("/overrides/:id", scheduleHandler.DeleteOverride)
		}

		// ------------------------------
		// NOTIFICAÇÕES (websocket)
		// ------------------------------
		api.GET("/notifications/ws",
			middleware.TokenFromQuery(),
			middleware.AuthMiddleware(d.Config),
			middleware.RequireService(repo, AgendaService),
			notificationsHandler.Stream,
		)
	}
}
