package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"charvault/internal/aiscan"
	"charvault/internal/auth"
	"charvault/internal/character"
	"charvault/internal/events"
	"charvault/internal/metrics"
	"charvault/pkg/config"
	"charvault/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	router.Use(metrics.Middleware())

	// Optional: avoid “trusted all proxies” warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start the TCP change feed first (so you notice binding errors early)
	hub := events.NewHub()
	router.GET("/ws", events.WSHandler(hub))
	tcpSrv := events.NewServer(cfg.FeedAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/metrics", metrics.Handler())

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Duration: cfg.JWTTTL,
	}
	authRepo := auth.NewRepo(db)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authRepo.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authGroup := router.Group("/auth")
	authHandler.RegisterRoutes(authGroup)

	authGroup.GET("/me", auth.Middleware(tokenSvc, authRepo), func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":    claims.EditorID,
			"email": claims.Email,
		})
	})

	// Characters: reads are public, writes require an editor token.
	charRepo := character.NewRepo(db)
	charHandler := character.NewHandler(charRepo, hub)
	charHandler.RegisterPublic(router.Group("/characters"))

	protected := router.Group("/characters")
	protected.Use(auth.Middleware(tokenSvc, authRepo))
	charHandler.RegisterProtected(protected)

	// AI scan (protected). Without an API key the routes answer 503.
	scanHandler := &aiscan.Handler{}
	if cfg.AnthropicKey != "" {
		scanHandler.Extractor = aiscan.NewAnthropicExtractor(cfg.AnthropicKey, cfg.AnthropicModel)
	} else {
		log.Println("CHARVAULT_ANTHROPIC_API_KEY not set, scan endpoints disabled")
	}
	scan := router.Group("/scan")
	scan.Use(auth.Middleware(tokenSvc, authRepo))
	scanHandler.RegisterRoutes(scan)

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
