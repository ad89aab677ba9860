package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/middleware"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/ratelimit"
	"github.com/harentsoaR/complaint-api/internal/storage"
	"github.com/harentsoaR/complaint-api/internal/timeouts"
	"github.com/harentsoaR/complaint-api/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries what the router needs besides the services.
type RouterConfig struct {
	Tokens  *utils.TokenManager
	Gates   *middleware.Gates
	Limiter ratelimit.Limiter

	// Metrics and Gatherer are optional. /metrics is mounted when Gatherer
	// is set.
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	// Health reports whether the database is reachable.
	Health func(ctx context.Context) error

	// UploadDir is served under storage.URLPrefix when images are stored
	// on local disk.
	UploadDir   string
	CORSOrigins []string
	Debug       bool

	// TrustedProxies may set X-Forwarded-For. With none, ClientIP is the
	// socket peer and the rate limiter cannot be sidestepped by a header.
	TrustedProxies []string
}

// complaintRoutes lists the per-kind paths.
var complaintRoutes = []struct {
	kind                  models.Kind
	create, assign, state string
	list, history         string
}{
	{models.KindReport, "/complaints", "/assignReport", "/updateReportStatus", "/complaints", "/complaintsHistory"},
	{models.KindMissing, "/missingPerson", "/assignMissing", "/updateMissingStatus", "/getMissingPerson", "/missingPersonHistory"},
	{models.KindUnidentified, "/unIdPerson", "/assignUnIdPerson", "/updateUnidPersonStatus", "/getUnIdPerson", "/unIdPersonHistory"},
	{models.KindMSLF, "/mslf", "/assignMSLF", "/updateMslfStatus", "/getmslf", "/mslfHistory"},
	{models.KindMobileApp, "/mobileApp", "/assignMobiApp", "/updateMobiAppStatus", "/getMobiApp", "/mobiAppHistory"},
}

// Router builds the engine with the middleware chain and every route.
func (h *Handler) Router(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		h.Log.Error("invalid trusted proxies, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	if h.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = h.MaxUploadBytes
	}

	r.Use(middleware.Recovery(h.Log), middleware.RequestLogger(h.Log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler())
	}
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.ErrorHandler(h.Log, cfg.Debug))

	r.GET("/health", health(cfg.Health))
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.UploadDir != "" {
		r.Static(storage.URLPrefix, cfg.UploadDir)
	}

	auth := middleware.Auth(cfg.Tokens)
	gates := cfg.Gates

	limited := r.Group("/")
	if cfg.Limiter != nil {
		limited.Use(middleware.RateLimit(cfg.Limiter, h.Log))
	}
	{
		limited.POST("/register", h.Register)
		limited.POST("/registerAdmin", h.RegisterAdmin)
		limited.POST("/login", h.Login)
		limited.POST("/admin", h.AdminLogin)
		limited.POST("/refresh", h.Refresh)
		limited.POST("/forgot-password", h.ForgotPassword)
		limited.POST("/reset-password/confirm", h.ConfirmReset)
	}

	r.GET("/getAllPolice", h.AllPolice)

	private := r.Group("/", auth)
	{
		private.POST("/logout", h.Logout)
		private.POST("/reset-password", h.ResetPassword)

		private.GET("/mydetails", h.Me)
		private.GET("/allusers", h.AllUsers)
		private.GET("/getStationPolice", gates.StationAdmin(), h.StationPolice)
		private.PUT("/citizenDetails", h.CitizenDetails)
		private.PUT("/policeDetails", h.PoliceDetails)
		private.PUT("/expoTokens", h.ExpoToken)
		private.POST("/upload-profile", h.UploadProfile)
		private.POST("/upload-verification", h.UploadVerification)
		private.POST("/sendNoti", h.SendNotification)
		private.PUT("/activateUser", gates.SystemAdmin(), h.ActivateUser)

		for _, cr := range complaintRoutes {
			private.POST(cr.create, gates.VerifiedCitizen(), h.SubmitComplaint(cr.kind))
			private.PUT(cr.assign, gates.StationAdmin(), h.AssignComplaint(cr.kind))
			private.PUT(cr.state, h.UpdateStatus(cr.kind))
			private.GET(cr.list, gates.StationAdmin(), h.ListComplaints(cr.kind, false))
			private.GET(cr.history, gates.StationAdmin(), h.ListComplaints(cr.kind, true))
		}
		private.PUT("/updatePoliceStatus", gates.PoliceMan(), h.UpdatePoliceStatus)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeouts.Ping())
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "database unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
