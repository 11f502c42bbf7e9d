package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finstress/internal/app"
	"finstress/internal/auth"
	"finstress/internal/chat"
	"finstress/internal/config"
	"finstress/internal/handlers"
	"finstress/internal/metrics"
	"finstress/internal/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const sessionCleanupInterval = time.Hour

func main() {
	configPath := os.Getenv("FINSTRESS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	cfg.SetupLogging()

	db, err := storage.NewDB(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, err := app.NewTracker(ctx, db)
	if err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	provider, err := auth.NewStaticProvider()
	if err != nil {
		log.Fatalf("Failed to initialize authentication: %v", err)
	}
	gate := auth.NewGate(provider, db)

	h := handlers.NewHandlers(tracker, gate, chatFactory(cfg.Chat), cfg.SecureCookie)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		cleanSessions(gctx, db, sessionCleanupInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// chatFactory builds a conversation per session. A configuration problem is
// logged once and then shown inside every transcript.
func chatFactory(cfg config.Chat) func() *chat.Conversation {
	client, err := chat.NewClient(cfg.ClientConfig())
	if err != nil {
		log.WithError(err).Warn("Assistant disabled")
		return func() *chat.Conversation {
			return chat.NewConversation(nil, err, metrics.ObserveChat)
		}
	}
	return func() *chat.Conversation {
		return chat.NewConversation(client, nil, metrics.ObserveChat)
	}
}

type sessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

// cleanSessions removes expired sessions until ctx is done.
func cleanSessions(ctx context.Context, db sessionCleaner, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		n, err := db.CleanExpiredSessions(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.WithError(err).Warn("Failed to clean expired sessions")
		case n > 0:
			log.Infof("Removed %d expired sessions", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.PathPrefix("/static/").Handler(handlers.Static())
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	}).Methods(http.MethodGet)
	r.HandleFunc("/login", h.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(h.AuthMiddleware)
	protected.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	protected.HandleFunc("/budget", h.SetBudget).Methods(http.MethodPost)
	protected.HandleFunc("/expenses", h.AddExpense).Methods(http.MethodPost)
	protected.HandleFunc("/expenses/clear", h.ClearExpenses).Methods(http.MethodPost)
	protected.HandleFunc("/expenses/{id}/delete", h.DeleteExpense).Methods(http.MethodPost)
	protected.HandleFunc("/report.pdf", h.Report).Methods(http.MethodGet)
	protected.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	protected.HandleFunc("/chat/reset", h.ResetChat).Methods(http.MethodPost)
	protected.HandleFunc("/api/summary", h.Summary).Methods(http.MethodGet)

	return r
}
