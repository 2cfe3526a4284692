package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"sqlapp/internal/adapters/email"
	"sqlapp/internal/adapters/http/middleware"
	"sqlapp/internal/adapters/session"
	"sqlapp/internal/adapters/sqlproxy"
	auditStore "sqlapp/internal/adapters/storage/audit"
	dbprofileStore "sqlapp/internal/adapters/storage/dbprofile"
	noticeStore "sqlapp/internal/adapters/storage/notice"
	readstateStore "sqlapp/internal/adapters/storage/readstate"
	sqlmenuStore "sqlapp/internal/adapters/storage/sqlmenu"
	userStore "sqlapp/internal/adapters/storage/user"
)

// Stores holds all storage dependencies.
type Stores struct {
	NoticeStore    noticeStore.Store
	ReadStateStore readstateStore.Store
	UserStore      userStore.Store
	DBProfileStore dbprofileStore.Store
	SQLMenuStore   sqlmenuStore.Store
	AuditStore     auditStore.Store
}

// Options carries the non-store wiring for NewMux.
type Options struct {
	Sessions    session.Store
	Email       email.Sender
	Recipients  []string
	SQLExecutor sqlproxy.Executor

	JWTSecret  string
	UserSecret string
	SessionTTL time.Duration

	CookieSecure   bool
	CookieSameSite http.SameSite
	FrontendOrigin string
	CSRFKey        string

	// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
	RateLimitPerSecond int
}

// Global wiring instances (set by NewMux)
var (
	stores *Stores
	opts   Options
	auth   *middleware.Authenticator
)

// timeNow is a variable for testability.
var timeNow = time.Now

// newSessionID is a variable for testability.
var newSessionID = session.NewID

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, o Options) http.Handler {
	stores = s
	opts = o
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	auth = &middleware.Authenticator{
		Codec:          middleware.NewTokenCodec(o.JWTSecret),
		Sessions:       o.Sessions,
		CookieSecure:   o.CookieSecure,
		CookieSameSite: o.CookieSameSite,
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(opts.RateLimitPerSecond, time.Second)

	// Apply middleware: RequestLog -> Identify -> RateLimit -> CORS -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF([]byte(o.CSRFKey), o.CookieSecure),
		middleware.CORS(o.FrontendOrigin),
		middleware.RateLimit(limiter),
		auth.Identify,
		middleware.RequestLog,
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/login", handleLogin)
	mux.HandleFunc("POST /api/logout", handleLogout)
	mux.HandleFunc("GET /api/session", handleSession)

	mux.HandleFunc("GET /api/notices", handleListNotices)
	mux.HandleFunc("POST /api/notices", auth.RequireSuper(handleCreateNotice))
	mux.HandleFunc("POST /api/notices/send", auth.RequireSuper(handleBroadcastNotice))
	mux.HandleFunc("POST /api/notices/{id}/read", handleMarkNoticeRead)
	mux.HandleFunc("POST /api/notices/{id}/push", auth.RequireSuper(handlePushNotice))
	mux.HandleFunc("DELETE /api/notices/{id}", auth.RequireSuper(handleDeleteNotice))
	// Kept for clients that still call the old push service path.
	mux.HandleFunc("POST /api/messages/{id}/push", auth.RequireSuper(handlePushNotice))

	mux.HandleFunc("GET /api/users", auth.RequireSuper(handleListUsers))
	mux.HandleFunc("POST /api/users", auth.RequireSuper(handleCreateUser))
	mux.HandleFunc("POST /api/users/{name}/password", auth.RequireSuper(handleSetUserPassword))
	mux.HandleFunc("POST /api/users/{name}/status", auth.RequireSuper(handleSetUserStatus))
	mux.HandleFunc("POST /api/users/{name}/role", auth.RequireSuper(handleSetUserRole))

	mux.HandleFunc("GET /api/db/config", handleListDBConfigs)
	mux.HandleFunc("POST /api/db/config", handleAddDBConfig)
	mux.HandleFunc("DELETE /api/db/config", handleDeleteDBConfig)
	mux.HandleFunc("POST /api/db/health", handleDBHealth)
	mux.HandleFunc("POST /api/execute-sql", handleExecuteSQL)

	mux.HandleFunc("GET /api/sql/config", handleListSQLConfigs)
	mux.HandleFunc("POST /api/sql/config", handleCreateSQLConfig)
	mux.HandleFunc("GET /api/sql/config/{id}", handleGetSQLConfig)
	mux.HandleFunc("PUT /api/sql/config/{id}", handleUpdateSQLConfig)
	mux.HandleFunc("DELETE /api/sql/config/{id}", handleDeleteSQLConfig)

	mux.HandleFunc("GET /api/audit", auth.RequireSuper(handleListAudit))
}
