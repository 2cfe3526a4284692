package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "sqlapp/internal/adapters/email"
	web "sqlapp/internal/adapters/http"
	"sqlapp/internal/adapters/session"
	"sqlapp/internal/adapters/sqlproxy"
	"sqlapp/internal/adapters/storage"
	auditStore "sqlapp/internal/adapters/storage/audit"
	dbprofileStore "sqlapp/internal/adapters/storage/dbprofile"
	noticeStore "sqlapp/internal/adapters/storage/notice"
	readstateStore "sqlapp/internal/adapters/storage/readstate"
	sqlmenuStore "sqlapp/internal/adapters/storage/sqlmenu"
	userStore "sqlapp/internal/adapters/storage/user"
	"sqlapp/internal/application/orchestrators"
	"sqlapp/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.New()

	// Audit trail database
	dsn := cfg.AuditDBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open audit database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("audit database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize audit schema: %v", err)
	}

	// File-backed stores share cfg.DataDir with prior deployments.
	users := userStore.NewFileStore(cfg.DataDir)
	stores := &web.Stores{
		NoticeStore:    noticeStore.NewFileStore(cfg.DataDir),
		ReadStateStore: readstateStore.NewFileStore(cfg.DataDir),
		UserStore:      users,
		DBProfileStore: dbprofileStore.NewFileStore(cfg.DataDir, cfg.UserSecret),
		SQLMenuStore:   sqlmenuStore.NewFileStore(cfg.DataDir),
		AuditStore:     auditStore.NewSQLiteStore(db),
	}

	// Session store: Redis when configured, in-memory otherwise
	var sessions session.Store
	if cfg.RedisAddr != "" {
		redisStore := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
		if err := redisStore.Ping(context.Background()); err != nil {
			log.Fatalf("redis unreachable at %s: %v", cfg.RedisAddr, err)
		}
		sessions = redisStore
		log.Println("Session store configured (Redis)")
	} else {
		memStore := session.NewMemoryStore(cfg.SessionTTL)
		defer memStore.Stop()
		sessions = memStore
		log.Println("Session store configured (in-memory)")
	}

	// Seed default admin account if the directory is empty
	seedDeps := orchestrators.UserDeps{
		UserStore:  users,
		AuditStore: stores.AuditStore,
		Secret:     cfg.UserSecret,
		Now:        time.Now,
	}
	seedInput := orchestrators.SeedAdminInput{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedInput, seedDeps); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		log.Println("Email sender configured (noop, set RESEND_KEY for real delivery)")
	}

	mux := web.NewMux(stores, web.Options{
		Sessions:           sessions,
		Email:              sender,
		Recipients:         cfg.EmailRecipients,
		SQLExecutor:        sqlproxy.NewMySQLExecutor(5 * time.Second),
		JWTSecret:          cfg.JWTSecret,
		UserSecret:         cfg.UserSecret,
		SessionTTL:         cfg.SessionTTL,
		CookieSecure:       cfg.CookieSecure,
		CookieSameSite:     cfg.CookieSameSite,
		FrontendOrigin:     cfg.FrontendOrigin,
		CSRFKey:            cfg.CSRFKey,
		RateLimitPerSecond: int(cfg.RateLimitPerSecond),
	})

	log.Printf("sqlapp %s starting on %s (data=%s)", version, cfg.Addr, cfg.DataDir)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
