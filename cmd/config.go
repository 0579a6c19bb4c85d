package cmd

import "time"

// Config carries all runtime settings read from the environment.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	KafkaHost               string
	KafkaStatusChangedTopic string

	RedisAddr     string
	RedisPassword string
	ETACacheTTL   time.Duration

	RoutingBaseURL string
	RoutingTimeout time.Duration

	AverageSpeedKmh    float64
	StaleOrderMaxAge   time.Duration
	StaleOrderSchedule string
}
