package main

import (
	"agent_chat/internal/config"
	redisSvc "agent_chat/internal/service/redis"
	"agent_chat/internal/service/relay"
	"agent_chat/internal/utils/log"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	s := relay.NewRelayServer(cfg.RelayListenAddr, redisSvc.NewRedis(rdb))
	log.Info("relay listening", zap.String("addr", cfg.RelayListenAddr))
	if err := s.Run(); err != nil {
		log.Fatal("relay stopped", zap.Error(err))
	}
}
