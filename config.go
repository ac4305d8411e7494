package snapshotjanitor

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Sentello/vsphere-snapshot-janitor/log"
)

const DefaultAgeThresholdDays = 30

// Endpoint is one vCenter to process during the run.
type Endpoint struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Insecure skips TLS certificate verification. Defaults to true, which
	// matches how these endpoints are usually reachable (self-signed certs).
	Insecure bool `yaml:"insecure"`
}

type Config struct {
	AgeThresholdDays int        `yaml:"ageThresholdDays"`
	Endpoints        []Endpoint `yaml:"endpoints"`
}

// LoadConfig assembles the run configuration. An optional .env file is
// loaded first, then endpoints come from a YAML config file when one is
// given, otherwise from VCENTER{n}_HOST/_USER/_PASSWORD environment
// variables, numbered from 1 with no gaps. Incomplete credential sets are
// skipped with a warning; the run continues with whatever remains.
func LoadConfig(ctx context.Context, envFile, configFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "couldn't load env file")
		}
	} else {
		// Best effort, matching dotenv semantics: a missing ./.env is fine.
		_ = godotenv.Load()
	}

	if configFile != "" {
		return loadConfigFile(configFile)
	}

	cfg := &Config{
		Endpoints: endpointsFromEnv(ctx),
	}

	if v := os.Getenv("VSPHERE_SNAPSHOT_JANITOR_AGE_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Errorf("invalid VSPHERE_SNAPSHOT_JANITOR_AGE_DAYS %q", v)
		}
		cfg.AgeThresholdDays = days
	}

	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read config file")
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "couldn't parse config file")
	}

	return cfg, nil
}

func endpointsFromEnv(ctx context.Context) []Endpoint {
	endpoints := []Endpoint{}

	for i := 1; ; i++ {
		host := os.Getenv(fmt.Sprintf("VCENTER%d_HOST", i))
		if host == "" {
			break
		}

		user := os.Getenv(fmt.Sprintf("VCENTER%d_USER", i))
		password := os.Getenv(fmt.Sprintf("VCENTER%d_PASSWORD", i))

		if user == "" || password == "" {
			log.WithContext(ctx).WithField("host", host).Warn("incomplete vCenter credentials, skipping")
			continue
		}

		insecure := true
		if v := os.Getenv(fmt.Sprintf("VCENTER%d_INSECURE", i)); v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				insecure = parsed
			}
		}

		endpoints = append(endpoints, Endpoint{
			Host:     host,
			Username: user,
			Password: password,
			Insecure: insecure,
		})
	}

	return endpoints
}

// Validate rejects configurations the engine must not run with. A zero or
// negative age threshold is an input error, never silently clamped.
func (c *Config) Validate() error {
	if c.AgeThresholdDays <= 0 {
		return errors.Errorf("age threshold must be a positive number of days, got %d", c.AgeThresholdDays)
	}

	if len(c.Endpoints) == 0 {
		return errors.New("no vCenter endpoints configured")
	}

	for _, ep := range c.Endpoints {
		if ep.Host == "" || ep.Username == "" || ep.Password == "" {
			return errors.Errorf("endpoint %q is missing credentials", ep.Host)
		}
	}

	return nil
}
