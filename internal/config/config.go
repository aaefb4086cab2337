// Package config groups the settings required to construct a Dealer and its
// Services: sweep/discovery/prune cadence plus per-transport connection
// settings, mirroring the flat, Get*-accessor Config the teacher's transport
// factories consume.
package config

import "time"

// Config groups the settings a Dealer and its Services need. Each transport
// backend only reads the keys relevant to it.
type Config struct {
	// ApplicationName identifies the owning application in logs and traces.
	ApplicationName string

	// DeadlineCheckInterval is how often the deadline sweeper scans the
	// unhandled store for expired messages. Defaults to 100ms per spec §4.6.
	DeadlineCheckInterval time.Duration

	// RegistryPruneInterval bounds how often the response registry drops
	// entries whose consumer has gone away. Defaults to 1s per spec §4.1.
	RegistryPruneInterval time.Duration

	// DiscoveryPollInterval is how often a Poller re-fetches the
	// handle->endpoint snapshot when using a polling HostsFetcher.
	DiscoveryPollInterval time.Duration

	// Kafka configuration.
	KafkaBrokers       []string
	KafkaConsumerGroup string

	// RabbitMQ configuration.
	RabbitMQURL string

	// NATS configuration.
	NATSURL string

	// AWS (SNS/SQS) configuration.
	AWSRegion          string
	AWSAccountID       string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string

	// HTTP configuration. ServerAddress is where the HTTP subscriber listens
	// for inbound responses; PublisherURL is the base URL requests are
	// POSTed to.
	HTTPServerAddress  string
	HTTPPublisherURL   string
	HTTPRequestTimeout time.Duration
}

// WithDefaults returns a copy of c with zero-valued cadence fields replaced
// by the design constants spec §4.6/§4.1 name as examples.
func (c Config) WithDefaults() Config {
	if c.DeadlineCheckInterval <= 0 {
		c.DeadlineCheckInterval = 100 * time.Millisecond
	}
	if c.RegistryPruneInterval <= 0 {
		c.RegistryPruneInterval = time.Second
	}
	if c.DiscoveryPollInterval <= 0 {
		c.DiscoveryPollInterval = 5 * time.Second
	}
	if c.HTTPRequestTimeout <= 0 {
		c.HTTPRequestTimeout = 10 * time.Second
	}
	return c
}

// GetKafkaBrokers implements transport.Config.
func (c *Config) GetKafkaBrokers() []string { return c.KafkaBrokers }

// GetKafkaConsumerGroup implements transport.Config.
func (c *Config) GetKafkaConsumerGroup() string { return c.KafkaConsumerGroup }

// GetRabbitMQURL implements transport.Config.
func (c *Config) GetRabbitMQURL() string { return c.RabbitMQURL }

// GetNATSURL implements transport.Config.
func (c *Config) GetNATSURL() string { return c.NATSURL }

// GetAWSRegion implements transport.Config.
func (c *Config) GetAWSRegion() string { return c.AWSRegion }

// GetAWSAccountID implements transport.Config.
func (c *Config) GetAWSAccountID() string { return c.AWSAccountID }

// GetAWSAccessKeyID implements transport.Config.
func (c *Config) GetAWSAccessKeyID() string { return c.AWSAccessKeyID }

// GetAWSSecretAccessKey implements transport.Config.
func (c *Config) GetAWSSecretAccessKey() string { return c.AWSSecretAccessKey }

// GetAWSEndpoint implements transport.Config.
func (c *Config) GetAWSEndpoint() string { return c.AWSEndpoint }

// GetHTTPServerAddress implements transport.Config.
func (c *Config) GetHTTPServerAddress() string { return c.HTTPServerAddress }

// GetHTTPPublisherURL implements transport.Config.
func (c *Config) GetHTTPPublisherURL() string { return c.HTTPPublisherURL }

// GetHTTPRequestTimeout implements transport.Config.
func (c *Config) GetHTTPRequestTimeout() time.Duration { return c.HTTPRequestTimeout }

func (c Config) String() string {
	redacted := c
	if redacted.AWSSecretAccessKey != "" {
		redacted.AWSSecretAccessKey = "***REDACTED***"
	}
	return "config.Config{" +
		"ApplicationName: " + redacted.ApplicationName +
		", NATSURL: " + redacted.NATSURL +
		", RabbitMQURL: " + redacted.RabbitMQURL +
		"}"
}
