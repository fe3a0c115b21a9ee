package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carebook/internal/auth"
	"carebook/internal/metrics"
)

type RouterDeps struct {
	Appointments  *AppointmentsHandler
	Directory     *DirectoryHandler
	Prescriptions *PrescriptionsHandler
	Validator     tokenValidator
	Collector     *metrics.Collector
	Logger        *slog.Logger
}

// NewRouter assembles the gin engine. Health and metrics are unauthenticated;
// everything under /api/v1 is gated by role.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Logger != nil {
		r.Use(RequestLogger(deps.Logger))
	}
	if deps.Collector != nil {
		r.Use(Instrument(deps.Collector))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")

	requester := v1.Group("/", AuthRequired(deps.Validator, auth.RoleRequester))
	{
		requester.POST("/appointments", deps.Appointments.Book)
		requester.PATCH("/appointments/:id", deps.Appointments.Reschedule)
		requester.DELETE("/appointments/:id", deps.Appointments.Cancel)
		requester.GET("/appointments", deps.Appointments.ListMine)
	}

	provider := v1.Group("/", AuthRequired(deps.Validator, auth.RoleProvider))
	{
		provider.PATCH("/appointments/:id/status", deps.Appointments.ChangeStatus)
		provider.GET("/providers/:id/appointments", deps.Appointments.ListForProvider)
		provider.POST("/appointments/:id/prescription", deps.Prescriptions.Issue)
		provider.GET("/appointments/:id/prescription", deps.Prescriptions.Get)
	}

	admin := v1.Group("/", AuthRequired(deps.Validator, auth.RoleAdmin))
	{
		admin.POST("/providers", deps.Directory.RegisterProvider)
		admin.DELETE("/providers/:id", deps.Directory.RemoveProvider)
		admin.POST("/requesters", deps.Directory.RegisterRequester)
		admin.GET("/requesters/:id", deps.Directory.GetRequester)
	}

	public := v1.Group("/")
	{
		public.GET("/providers", deps.Directory.ListProviders)
		public.GET("/providers/:id", deps.Directory.GetProvider)
	}

	return r
}
