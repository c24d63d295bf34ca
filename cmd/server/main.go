package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/internal/api/handlers"
	"github.com/troikatech/voice-bridge/internal/relay"
	"github.com/troikatech/voice-bridge/pkg/env"
	"github.com/troikatech/voice-bridge/pkg/logger"
	"github.com/troikatech/voice-bridge/pkg/middleware"
	"github.com/troikatech/voice-bridge/pkg/otel"
)

// BridgeServer wires the telephony webhooks and the relay together
type BridgeServer struct {
	cfg         *env.Config
	redisClient *redis.Client
	registry    *relay.Registry
	handler     *handlers.Handler
}

func main() {
	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		shutdown, err := otel.InitTracing("voice-bridge", "1.0.0", cfg.OTELEndpoint)
		if err != nil {
			logger.Log.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer shutdown()
			logger.Log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	logger.Log.Info("Starting Voice Bridge server",
		zap.String("env", cfg.AppEnv),
		zap.String("port", cfg.AppPort),
		zap.String("agent_url", cfg.AgentURL),
	)

	// Redis is optional: only the webhook rate limiter uses it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Failed to parse Redis URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Warn("Redis unreachable, webhook rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	agentClient := relay.NewAgentClient(relay.AgentConfig{
		URL:         cfg.AgentURL,
		APIKey:      cfg.DeepgramAPIKey,
		DialTimeout: time.Duration(cfg.DialTimeoutSec) * time.Second,
		Settings:    buildAgentSettings(cfg),
	}, logger.Log)

	registry := relay.NewRegistry()

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	registry.StartSweeper(
		sweeperCtx,
		time.Duration(cfg.SweepIntervalSec)*time.Second,
		time.Duration(cfg.SessionIdleTimeoutSec)*time.Second,
		logger.Log,
	)

	supervisor := relay.NewSupervisor(
		registry,
		agentClient,
		cfg.UpstreamFrameBytes,
		time.Duration(cfg.KeepAliveIntervalSec)*time.Second,
		logger.Log,
	)

	apiHandler := handlers.NewHandler(cfg, redisClient, registry, supervisor)

	server := &BridgeServer{
		cfg:         cfg,
		redisClient: redisClient,
		registry:    registry,
		handler:     apiHandler,
	}

	router := server.setupRouter()

	// No WriteTimeout: the websocket endpoint holds connections open for
	// the full duration of a call
	srv := &http.Server{
		Addr:        ":" + cfg.AppPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Log.Info("Voice Bridge listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

// buildAgentSettings assembles the one-time session configuration sent to
// the agent endpoint on every connection. Telephony audio is 8kHz mu-law in
// both directions.
func buildAgentSettings(cfg *env.Config) relay.SettingsMessage {
	return relay.SettingsMessage{
		Type: "Settings",
		Audio: relay.AudioSettings{
			Input: relay.AudioFormat{
				Encoding:   "mulaw",
				SampleRate: 8000,
			},
			Output: relay.AudioFormat{
				Encoding:   "mulaw",
				SampleRate: 8000,
				Container:  "none",
			},
		},
		Agent: relay.AgentSettings{
			Language: cfg.AgentLanguage,
			Listen: relay.ListenConfig{
				Provider: relay.Provider{
					Type:  "deepgram",
					Model: cfg.AgentListenModel,
				},
			},
			Think: relay.ThinkConfig{
				Provider: relay.Provider{
					Type:        cfg.ThinkProvider,
					Model:       cfg.ThinkModel,
					Temperature: cfg.ThinkTemperature,
				},
				Prompt: cfg.AgentPrompt,
			},
			Speak: relay.SpeakConfig{
				Provider: relay.Provider{
					Type:  "deepgram",
					Model: cfg.AgentSpeakModel,
					Voice: cfg.AgentVoice,
				},
			},
			Greeting: cfg.AgentGreeting,
		},
	}
}

func (s *BridgeServer) setupRouter() *gin.Engine {
	if s.cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(1 << 20)) // 1 MB limit

	// Add OpenTelemetry middleware if enabled
	if s.cfg.OTELEnabled {
		router.Use(otel.GinMiddleware())
	}

	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s\n",
			param.TimeStamp.Format(time.RFC3339),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
		)
	}))

	// CORS
	corsConfig := cors.DefaultConfig()
	if s.cfg.CORSAllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{s.cfg.CORSAllowedOrigins}
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health and metrics
	router.GET("/health", s.handler.HealthCheck)
	router.GET("/metrics", s.handler.GetMetrics)
	router.GET("/metrics/prometheus", s.handler.GetPrometheusMetrics)

	// Telephony webhooks (public, signature verified)
	voice := router.Group("/")
	if s.redisClient != nil {
		rateLimiter := middleware.NewRateLimiter(s.redisClient, s.cfg.WebhookRateLimitRPM)
		voice.Use(rateLimiter.Middleware())
	}
	voice.POST("/voice", s.handler.VoiceWebhook)
	voice.POST("/stream-status", s.handler.StreamStatus)

	// Media stream websocket (public, direct connect from the telephony
	// transport)
	router.GET("/twilio", s.handler.MediaStream)

	return router
}
