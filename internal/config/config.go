package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:9001"
	DefaultTargets = "Product C,Product D"
)

var (
	ErrBaseURL = errors.New("base url must have a scheme and a host")
	ErrTimeout = errors.New("request timeout cannot be negative")
)

type Options struct {
	baseURL     string
	targets     string
	logLevel    string
	dataBaseDSN string
	runAddr     string
	timeout     time.Duration
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
func (o *Options) ParseFlags(name string, args []string) error {
	// Load environment variables from the .env file
	loadEnvFile()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	// Override variable values with values from command line flags
	fs.StringVar(&o.baseURL, "u", getEnvOrDefault("PRODUCTS_BASE_URL", DefaultBaseURL), "base url of the product service")
	fs.StringVar(&o.targets, "t", getEnvOrDefault("TARGET_PRODUCTS", DefaultTargets), "comma separated product names to delete")
	fs.StringVar(&o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "info"), "log level")
	fs.StringVar(&o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "deletion journal connection string")
	fs.StringVar(&o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":9001"), "address and port of the stub product service")

	timeout, err := time.ParseDuration(getEnvOrDefault("REQUEST_TIMEOUT", "0s"))
	if err != nil {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	fs.DurationVar(&o.timeout, "timeout", timeout, "per request timeout, 0 means none")

	if err := fs.Parse(args); err != nil {
		return err
	}

	return o.validate()
}

func (o *Options) validate() error {
	var errSum error
	u, err := url.Parse(o.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errSum = errors.Join(errSum, ErrBaseURL)
	}
	if o.timeout < 0 {
		errSum = errors.Join(errSum, ErrTimeout)
	}
	return errSum
}

// BaseURL is returned without a trailing slash.
func (o *Options) BaseURL() string {
	return strings.TrimRight(o.baseURL, "/")
}

// Targets splits the target list on commas. Names are kept verbatim apart
// from surrounding whitespace; empty entries are dropped.
func (o *Options) Targets() []string {
	var targets []string
	for _, name := range strings.Split(o.targets, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			targets = append(targets, name)
		}
	}
	return targets
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) Timeout() time.Duration {
	return o.timeout
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file in the working directory.
// Variables already present in the environment win.
func loadEnvFile() {
	err := godotenv.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("cannot load .env file: %v", err)
		}
		return
	}
	log.Printf(".env file loaded")
}
