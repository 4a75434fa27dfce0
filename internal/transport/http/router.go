package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/unrolled/secure"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/guard"
	"github.com/Skotchmaster/college_portal/internal/handlers"
	"github.com/Skotchmaster/college_portal/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/college_portal/internal/middleware/logging"
	"github.com/Skotchmaster/college_portal/internal/service"
	"github.com/Skotchmaster/college_portal/internal/session"
)

type Deps struct {
	Engine   *authz.Engine
	Guard    *guard.Guard
	Requests *service.RequestService

	Auth         *handlers.AuthHandler
	Student      *handlers.StudentHandler
	Clerk        *handlers.ClerkHandler
	Admin        *handlers.AdminHandler
	Password     *handlers.PasswordHandler
	Email        *handlers.EmailHandler
	Certificates *handlers.CertificateHandler

	Ready func(ctx context.Context) error

	WebRoot         string
	LoginRatePerMin int
	Development     bool
}

var pageRoots = []string{"/student", "/clerk", "/admin"}

// New builds the echo instance with the global middleware stack and all
// routes registered.
func New(log *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(log),
		echo.WrapMiddleware(secure.New(secure.Options{
			FrameDeny:             true,
			ContentTypeNosniff:    true,
			BrowserXssFilter:      true,
			ReferrerPolicy:        "same-origin",
			STSSeconds:            31536000,
			STSIncludeSubdomains:  true,
			ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: blob:; frame-ancestors 'none'",
			IsDevelopment:         d.Development,
		}).Handler),
	)

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	rate := d.LoginRatePerMin
	if rate <= 0 {
		rate = 10
	}
	limit := echo.WrapMiddleware(httprate.LimitByIP(rate, time.Minute))

	sessionCookies := make([]string, 0, len(session.Kinds))
	for _, k := range session.Kinds {
		sessionCookies = append(sessionCookies, k.CookieName())
	}
	api := e.Group("/api", csrf.Middleware(csrf.Config{
		Secure:            !d.Development,
		SessionCookies:    sessionCookies,
		EnforceSameOrigin: true,
		SkipPrefixes: []string{
			"/api/student/login",
			"/api/clerk/login",
			"/api/admin/login",
			"/api/auth/",
			"/api/verify",
		},
	}))

	registerStudent(api, d, limit)
	registerClerk(api, d, limit)
	registerAdmin(api, d, limit)

	api.POST("/auth/forgot-password/student", d.Password.Forgot, limit)
	api.POST("/auth/reset-password/:token", d.Password.Reset, limit)
	api.POST("/auth/send-otp", d.Email.SendOTP, limit)
	api.POST("/verify", d.Certificates.Verify, limit)

	registerPages(e, d)
}

func registerStudent(api *echo.Group, d *Deps, limit echo.MiddlewareFunc) {
	anyStudent := d.Engine.Require(authz.Student(nil))

	api.POST("/student/login", d.Auth.StudentLogin, limit)
	api.POST("/student/logout", d.Auth.Logout(session.KindStudent))
	api.GET("/student/me", d.Auth.Me, anyStudent)
	api.GET("/student/profile", d.Student.Profile, anyStudent)

	api.GET("/student/requests", d.Student.ListRequests, anyStudent)
	api.POST("/student/requests", d.Student.CreateRequest, anyStudent)
	api.GET("/student/requests/image/:request_id", d.Student.RequestScreenshot,
		d.Engine.RequireFor(func(c echo.Context) []authz.Rule {
			return authz.Shared(d.Requests.StudentOwnsRequest(handlers.ParamID(c, "request_id")))
		}))

	api.GET("/student/image/:rollno", d.Student.Photo,
		d.Engine.RequireFor(func(c echo.Context) []authz.Rule {
			return authz.Shared(service.OwnsRoll(c.Param("rollno")))
		}))
	api.POST("/student/upload-photo", d.Student.UploadPhoto, anyStudent)
	api.POST("/student/update-profile", d.Student.UpdateProfile, anyStudent)

	api.POST("/student/send-update-email-otp", d.Email.SendUpdateOTP, anyStudent, limit)
	api.POST("/student/verify-update-email-otp", d.Email.VerifyUpdateOTP, anyStudent, limit)

	api.GET("/student/requests/download/:request_id", d.Certificates.Download,
		d.Engine.RequireFor(func(c echo.Context) []authz.Rule {
			return []authz.Rule{authz.Student(d.Requests.StudentOwnsRequest(handlers.ParamID(c, "request_id")))}
		}))
}

func registerClerk(api *echo.Group, d *Deps, limit echo.MiddlewareFunc) {
	anyClerk := d.Engine.Require(authz.Clerk())
	admission := d.Engine.Require(authz.Clerk(authz.RoleAdmission))
	deskOwns := d.Engine.RequireFor(func(c echo.Context) []authz.Rule {
		return []authz.Rule{authz.Clerk().OwnedBy(d.Requests.DeskHandlesRequest(handlers.ParamID(c, "request_id")))}
	})

	api.POST("/clerk/login", d.Auth.ClerkLogin, limit)
	api.POST("/clerk/logout", d.Auth.Logout(session.KindClerk))
	api.GET("/clerk/me", d.Auth.Me, anyClerk)

	api.GET("/clerk/requests", d.Clerk.ListRequests, anyClerk)
	api.GET("/clerk/requests/:request_id", d.Clerk.GetRequest, deskOwns)
	api.PUT("/clerk/requests/:request_id", d.Clerk.UpdateRequest, deskOwns)

	api.GET("/clerk/students/search", d.Clerk.SearchStudents, anyClerk)
	api.GET("/clerk/students/:rollno", d.Clerk.StudentRecord, anyClerk)
	api.PUT("/clerk/students/:rollno", d.Clerk.UpdateStudentRecord, admission)
	api.POST("/clerk/admission/students", d.Clerk.AdmitStudent, admission)
}

func registerAdmin(api *echo.Group, d *Deps, limit echo.MiddlewareFunc) {
	anyAdmin := d.Engine.Require(authz.Admin())
	adminOnly := d.Engine.Require(authz.Admin(authz.RoleAdmin))

	api.POST("/admin/login", d.Auth.AdminLogin, limit)
	api.POST("/admin/logout", d.Auth.Logout(session.KindAdmin))
	api.GET("/admin/me", d.Auth.Me, anyAdmin)

	api.POST("/admin/create-clerk", d.Admin.CreateClerk, adminOnly)
	api.GET("/admin/clerks", d.Admin.ListClerks, anyAdmin)
	api.PATCH("/admin/clerks/:id", d.Admin.UpdateClerk, adminOnly)
	api.POST("/admin/students/reindex", d.Admin.ReindexStudents, anyAdmin)
	api.GET("/admin/students", d.Admin.ListStudents, anyAdmin)
	api.GET("/admin/students/:rollno", d.Admin.StudentRecord, anyAdmin)
	api.GET("/admin/student-stats", d.Admin.StudentStats, adminOnly)
}

// registerPages serves the front-end bundle. Role-rooted subtrees sit behind
// the page guard; everything else under WEB_ROOT is public.
func registerPages(e *echo.Echo, d *Deps) {
	if d.WebRoot == "" {
		return
	}
	static := func(skipper middleware.Skipper) echo.MiddlewareFunc {
		return middleware.StaticWithConfig(middleware.StaticConfig{
			Root:       ".",
			Filesystem: http.FS(os.DirFS(d.WebRoot)),
			HTML5:      true,
			Skipper:    skipper,
		})
	}

	e.Use(static(func(c echo.Context) bool {
		p := c.Request().URL.Path
		if strings.HasPrefix(p, "/api") || strings.HasPrefix(p, "/health") {
			return true
		}
		for _, root := range pageRoots {
			if p == root || strings.HasPrefix(p, root+"/") {
				return true
			}
		}
		return false
	}))

	for _, kind := range []session.Kind{session.KindStudent, session.KindClerk, session.KindAdmin} {
		e.Group("/"+string(kind), d.Guard.Subtree(kind), static(nil))
	}
}
