package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config 汇总进程生命周期内不可变的全部运行参数。
type Config struct {
	Port                  string
	Env                   string
	AuthTokens            []string
	HistoryMax            int
	HistoryKeep           int
	ReceiveWaitSeconds    int
	JWTSecret             string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	DatabaseDSN           string // 为空时禁用账号接口
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Load 从环境变量加载配置，缺失项回落到开发缺省值。
func Load() Config {
	tokens := strings.Split(getenv("AUTH_TOKENS", "tobytokengjbgrjl"), ",")
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return Config{
		Port:                  getenv("APP_PORT", "8080"),
		Env:                   getenv("APP_ENV", "dev"),
		AuthTokens:            out,
		HistoryMax:            getenvInt("HISTORY_MAX", 50),
		HistoryKeep:           getenvInt("HISTORY_KEEP", 10),
		ReceiveWaitSeconds:    getenvInt("RECEIVE_WAIT_SECONDS", 25),
		JWTSecret:             getenv("JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTLMinutes: getenvInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   getenvInt("REFRESH_TOKEN_TTL_DAYS", 7),
		DatabaseDSN:           os.Getenv("DATABASE_DSN"),
	}
}

// Validate 做启动前的基本校验，配置错误直接拒绝启动。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port must not be empty")
	}
	if len(cfg.AuthTokens) == 0 {
		return errors.New("auth token allowlist must not be empty")
	}
	if cfg.HistoryKeep >= cfg.HistoryMax {
		return errors.New("HISTORY_KEEP must be smaller than HISTORY_MAX")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("default JWT secret is not allowed outside dev")
	}
	return nil
}
