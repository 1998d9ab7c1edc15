package app

import (
	"github.com/vidgist/vidgist-backend/internal/platform/envutil"
	"github.com/vidgist/vidgist-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey       string
	EngineSharedSecret string
	EncryptionKey      string
	Port               string
	Environment        string
	Version            string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	engineSecret := envutil.GetEnv("ENGINE_SHARED_SECRET", "", log)
	encryptionKey := envutil.GetEnv("ENCRYPTION_KEY", "defaultencryptionkey", log)
	port := envutil.GetEnv("PORT", "8080", log)
	environment := envutil.GetEnv("APP_ENV", "development", log)
	version := envutil.GetEnv("APP_VERSION", "dev", log)
	return Config{
		JWTSecretKey:       jwtSecretKey,
		EngineSharedSecret: engineSecret,
		EncryptionKey:      encryptionKey,
		Port:               port,
		Environment:        environment,
		Version:            version,
	}
}
