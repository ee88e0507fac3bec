package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI           string
	DBName             string
	Port               string
	CORSOrigin         string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	CloudinaryCloud    string
	CloudinaryKey      string
	CloudinarySecret   string
	UploadTempDir      string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "tube"),
		Port:               getEnvOrDefault("PORT", "8000"),
		CORSOrigin:         getEnvOrDefault("CORS_ORIGIN", "*"),
		AccessTokenSecret:  getEnvOrDefault("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnvOrDefault("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL_DAYS", 1, 24*time.Hour),
		RefreshTokenTTL:    getDurationEnv("REFRESH_TOKEN_TTL_DAYS", 10, 24*time.Hour),
		CloudinaryCloud:    getEnvOrDefault("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryKey:      getEnvOrDefault("CLOUDINARY_API_KEY", ""),
		CloudinarySecret:   getEnvOrDefault("CLOUDINARY_API_SECRET", ""),
		UploadTempDir:      getEnvOrDefault("UPLOAD_TEMP_DIR", "./public/temp"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
