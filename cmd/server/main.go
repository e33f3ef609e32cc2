package main

import (
	"chatrelay/internal/auth"
	"chatrelay/internal/config"
	"chatrelay/internal/db"
	clog "chatrelay/internal/log"
	"chatrelay/internal/relay"
	"chatrelay/internal/server"
	"chatrelay/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 负责加载配置、初始化日志、组装中继核心并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	var userSvc *service.UserService
	if cfg.DatabaseDSN != "" {
		gdb, err := db.Connect(cfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect")
		}
		if err := db.Migrate(gdb); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		userSvc = service.NewUserService(gdb, cfg)
	} else {
		log.Info().Msg("DATABASE_DSN not set, account endpoints disabled")
	}

	validator := auth.NewTokenValidator(cfg.AuthTokens, cfg.JWTSecret)
	engine := relay.NewEngine(
		relay.NewRegistry(validator),
		relay.NewPresence(),
		relay.NewHistory(cfg.HistoryMax, cfg.HistoryKeep),
		relay.NewDirectory(),
	)

	r := server.SetupRouter(cfg, engine, userSvc)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
