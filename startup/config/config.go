package config

import "os"

type Config struct {
	Port             string
	StayDBHost       string
	StayDBPort       string
	GalleryCacheHost string
	GalleryCachePort string
	JaegerAddress    string
	SecretKey        string
	SecureCookies    bool
	LogFile          string
}

func NewConfig() *Config {
	return &Config{
		Port:             os.Getenv("STAY_SERVICE_PORT"),
		StayDBHost:       os.Getenv("STAY_DB_HOST"),
		StayDBPort:       os.Getenv("STAY_DB_PORT"),
		GalleryCacheHost: os.Getenv("GALLERY_CACHE_HOST"),
		GalleryCachePort: os.Getenv("GALLERY_CACHE_PORT"),
		JaegerAddress:    os.Getenv("JAEGER_ADDRESS"),
		SecretKey:        os.Getenv("SECRET_KEY"),
		SecureCookies:    os.Getenv("SECURE_COOKIES") == "true",
		LogFile:          os.Getenv("LOG_FILE"),
	}
}
