/*
Copyright 2025 Stashbook Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"STASHBOOK_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"STASHBOOK_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"STASHBOOK_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"STASHBOOK_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"STASHBOOK_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"STASHBOOK_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"STASHBOOK_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"STASHBOOK_REDIS_DNS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"STASHBOOK_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"STASHBOOK_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"STASHBOOK_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

// LedgerConfig carries the ledger policy knobs that the design leaves open.
// AllowClosedAccountTx keeps closed accounts transactable (closed, not
// frozen); RejectNegativeAmounts refuses negative amounts at the ledger
// boundary instead of letting a negative deposit behave as a withdrawal.
type LedgerConfig struct {
	AllowClosedAccountTx  *bool `json:"allow_closed_account_tx" envconfig:"STASHBOOK_LEDGER_ALLOW_CLOSED_ACCOUNT_TX"`
	RejectNegativeAmounts *bool `json:"reject_negative_amounts" envconfig:"STASHBOOK_LEDGER_REJECT_NEGATIVE_AMOUNTS"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"STASHBOOK_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Ledger       LedgerConfig     `json:"ledger"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("stashbook", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called stashbook.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Stashbook Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	// Ledger policy defaults: closed accounts stay transactable, negative
	// amounts are rejected.
	if cnf.Ledger.AllowClosedAccountTx == nil {
		allow := true
		cnf.Ledger.AllowClosedAccountTx = &allow
	}
	if cnf.Ledger.RejectNegativeAmounts == nil {
		reject := true
		cnf.Ledger.RejectNegativeAmounts = &reject
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	_ = mockConfig.validateAndAddDefaultsForTest()
	ConfigStore.Store(mockConfig)
}

// validateAndAddDefaultsForTest fills only the defaults that tests rely on,
// without enforcing required connection strings.
func (cnf *Configuration) validateAndAddDefaultsForTest() error {
	if cnf.Ledger.AllowClosedAccountTx == nil {
		allow := true
		cnf.Ledger.AllowClosedAccountTx = &allow
	}
	if cnf.Ledger.RejectNegativeAmounts == nil {
		reject := true
		cnf.Ledger.RejectNegativeAmounts = &reject
	}
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
	}
	return nil
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
