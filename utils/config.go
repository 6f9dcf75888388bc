package utils

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the backend settings read from the environment
type Config struct {
	Port           string
	MongoURI       string
	MongoDatabase  string
	StoreDriver    string
	RazorpayKeyID  string
	RazorpaySecret string
	Currency       string
	MediaDriver    string
	UploadDir      string
	CloudName      string
	CloudAPIKey    string
	CloudAPISecret string
	JWTSecret      string
	AdminEmail     string
	AdminPassHash  string
	EmailProvider  string
	SendgridKey    string
	PostmarkToken  string
	EmailSender    string
	SQSQueueURL    string
	AWSRegion      string
	AWSAccessKey   string
	AWSSecretKey   string
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigin     string
	SportsFile     string
}

// LoadConfig reads .env when present and then the process environment
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}
	return Config{
		Port:           getenv("PORT", "5000"),
		MongoURI:       getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getenv("MONGODB_DATABASE", "registrations"),
		StoreDriver:    getenv("STORE_DRIVER", "mongo"),
		RazorpayKeyID:  os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		Currency:       getenv("PAYMENT_CURRENCY", "INR"),
		MediaDriver:    getenv("MEDIA_DRIVER", "local"),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		CloudName:      os.Getenv("CLOUD_NAME"),
		CloudAPIKey:    os.Getenv("API_KEY"),
		CloudAPISecret: os.Getenv("API_SECRET"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassHash:  os.Getenv("ADMIN_PASSWORD_HASH"),
		EmailProvider:  os.Getenv("EMAIL_PROVIDER"),
		SendgridKey:    os.Getenv("SENDGRID_API_KEY"),
		PostmarkToken:  os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:    os.Getenv("EMAIL_SENDER"),
		SQSQueueURL:    os.Getenv("SQS_QUEUE_URL"),
		AWSRegion:      getenv("AWS_REGION", "ap-south-1"),
		AWSAccessKey:   os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		RateLimitRPS:   getenvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getenvInt("RATE_LIMIT_BURST", 10),
		CORSOrigin:     getenv("CORS_ORIGIN", "*"),
		SportsFile:     os.Getenv("SPORTS_FILE"),
	}
}

func getenv(key, d string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return d
}

func getenvInt(key string, d int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return d
}

func getenvFloat(key string, d float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return d
}
