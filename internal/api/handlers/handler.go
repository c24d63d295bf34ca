package handlers

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/troikatech/voice-bridge/internal/relay"
	"github.com/troikatech/voice-bridge/pkg/env"
	"github.com/troikatech/voice-bridge/pkg/logger"
)

type Handler struct {
	cfg         *env.Config
	redisClient *redis.Client // nil when REDIS_URL is not configured
	registry    *relay.Registry
	supervisor  *relay.Supervisor
	logger      *zap.Logger
}

func NewHandler(
	cfg *env.Config,
	redisClient *redis.Client,
	registry *relay.Registry,
	supervisor *relay.Supervisor,
) *Handler {
	return &Handler{
		cfg:         cfg,
		redisClient: redisClient,
		registry:    registry,
		supervisor:  supervisor,
		logger:      logger.Log,
	}
}
