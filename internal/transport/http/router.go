package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/classkit/api/internal/application/analytics"
	"github.com/classkit/api/internal/application/assignment"
	"github.com/classkit/api/internal/application/course"
	fileapp "github.com/classkit/api/internal/application/file"
	"github.com/classkit/api/internal/application/notification"
	"github.com/classkit/api/internal/application/registration"
	"github.com/classkit/api/internal/application/session"
	"github.com/classkit/api/internal/application/stream"
	"github.com/classkit/api/internal/config"
	"github.com/classkit/api/internal/domain"
	"github.com/classkit/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/classkit/api/internal/infrastructure/jwt"
	"github.com/classkit/api/internal/infrastructure/postgres"
	redisinfra "github.com/classkit/api/internal/infrastructure/redis"
	s3infra "github.com/classkit/api/internal/infrastructure/s3"
	"github.com/classkit/api/internal/infrastructure/smtp"
	"github.com/classkit/api/internal/transport/http/handler"
	appmiddleware "github.com/classkit/api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *postgres.UserRepo
	NotificationRepo *postgres.NotificationRepo
	CourseRepo       *postgres.CourseRepo
	StreamRepo       *postgres.StreamRepo
	AttachmentRepo   *postgres.AttachmentRepo
	AssignmentRepo   *postgres.AssignmentRepo
	AnalyticsRepo    *postgres.AnalyticsRepo
	UnreadCache      *redisinfra.UnreadCache
	SessionStore     *redisinfra.SessionStore
	PendingStore     *redisinfra.PendingStore
	EventRepo        *dynamo.EventRepo
	HistoryRepo      *dynamo.HistoryRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
	Logger           *zap.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.SessionStore)

	// 5 requests/second, burst of 10, on the sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	notifSvc := notification.NewService(notification.ServiceDeps{
		Durable: deps.NotificationRepo,
		Cache:   deps.UnreadCache,
		History: deps.HistoryRepo,
		Events:  deps.EventRepo,
		Logger:  deps.Logger,
	})
	regSvc := registration.NewService(registration.ServiceDeps{
		Pending:    deps.PendingStore,
		Users:      deps.UserRepo,
		Mailer:     deps.Mailer,
		Logger:     deps.Logger,
		PendingTTL: cfg.PendingTTL,
		BaseURL:    cfg.APIBaseURL,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		Users:    deps.UserRepo,
		Sessions: deps.SessionStore,
		JWT:      deps.JWTProvider,
	})
	courseSvc := course.NewService(course.ServiceDeps{
		Courses: deps.CourseRepo,
		Users:   deps.UserRepo,
	})
	streamSvc := stream.NewService(stream.ServiceDeps{
		Stream:   deps.StreamRepo,
		Courses:  deps.CourseRepo,
		Notifier: notifSvc,
		Logger:   deps.Logger,
	})
	assignmentSvc := assignment.NewService(assignment.ServiceDeps{
		Assignments: deps.AssignmentRepo,
		Courses:     deps.CourseRepo,
		Notifier:    notifSvc,
		Logger:      deps.Logger,
	})
	analyticsSvc := analytics.NewService(analytics.ServiceDeps{
		Stats:   deps.AnalyticsRepo,
		Courses: deps.CourseRepo,
		Events:  deps.EventRepo,
		Logger:  deps.Logger,
	})
	fileSvc := fileapp.NewService(fileapp.ServiceDeps{
		Attachments: deps.AttachmentRepo,
		Objects:     deps.S3Store,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(regSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	courseH := handler.NewCourseHandler(courseSvc)
	streamH := handler.NewStreamHandler(streamSvc)
	assignmentH := handler.NewAssignmentHandler(assignmentSvc)
	analyticsH := handler.NewAnalyticsHandler(analyticsSvc)
	fileH := handler.NewFileHandler(fileSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Get("/auth/confirm/{token}", authH.Confirm)
		r.With(sensitiveRL.Limit).Post("/auth/login", sessionH.Login)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", sessionH.GetCurrent)
			r.Post("/auth/logout", sessionH.Logout)

			r.Get("/notifications", notifH.ListUnread)
			r.Get("/notifications/history", notifH.History)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)

			r.Get("/courses", courseH.List)
			r.Post("/courses/join", courseH.Join)
			r.Get("/courses/{courseID}", courseH.Get)
			r.Get("/courses/{courseID}/roster", courseH.Roster)
			r.Get("/courses/{courseID}/posts", streamH.ListPosts)
			r.Get("/courses/{courseID}/assignments", assignmentH.ListByCourse)

			r.Post("/posts", streamH.CreatePost)
			r.Delete("/posts/{postID}", streamH.DeletePost)
			r.Get("/posts/{postID}/comments", streamH.ListComments)
			r.Post("/posts/{postID}/comments", streamH.AddComment)

			r.Post("/assignments/{assignmentID}/submissions", assignmentH.Submit)

			r.Post("/files", fileH.Upload)
			r.Get("/files", fileH.List)
			r.Get("/files/{id}", fileH.Download)
			r.Get("/files/{id}/url", fileH.DownloadURL)
			r.Delete("/files/{id}", fileH.Delete)

			// Teacher-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleTeacher))

				r.Post("/courses", courseH.Create)
				r.Post("/assignments", assignmentH.Create)
				r.Put("/submissions/{submissionID}/grade", assignmentH.Grade)
				r.Get("/courses/{courseID}/dashboard", analyticsH.Dashboard)
			})
		})
	})

	return r
}
