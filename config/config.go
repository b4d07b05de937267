package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	optional := []string{
		"OPENAI_API_KEY",
		"SERP_API_KEY",
	}
	for _, env := range optional {
		if os.Getenv(env) == "" {
			log.Printf("Warning: %s environment variable not set\n", env)
		}
	}
}

var truthy = map[string]bool{"1": true, "true": true, "yes": true, "on": true}

// ResearchMode reports whether the external persona source is opted in.
// It is off unless KALSIM_RESEARCH_MODE is explicitly enabled.
func ResearchMode() bool {
	return truthy[strings.ToLower(os.Getenv("KALSIM_RESEARCH_MODE"))]
}

// NATSURL returns the NATS server URL, or empty when the daemon should run
// an embedded server instead.
func NATSURL() string {
	return os.Getenv("NATS_URL")
}

// DataDir is the root directory for persisted run artifacts.
func DataDir() string {
	if dir := os.Getenv("KALSIM_DATA_DIR"); dir != "" {
		return dir
	}
	return "data"
}

// APIAddr is the listen address of the HTTP API.
func APIAddr() string {
	if addr := os.Getenv("KALSIM_API_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

// OpenAIKey returns the OpenAI API key, empty when LLM generation is disabled.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// SerpAPIKey returns the SerpAPI key used by the market trend collaborator.
func SerpAPIKey() string {
	return os.Getenv("SERP_API_KEY")
}
