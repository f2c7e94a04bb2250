package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/h30s/muzier/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 50,
	}
	queueLimit = configVar[int]{
		envKey:       "SERVER_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 100,
	}
	allowAllControls = configVar[bool]{
		envKey:       "SERVER_ALLOW_ALL_CONTROLS",
		flagKey:      "allow-all-controls",
		defaultValue: false,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	kafkaBrokers = configVar[[]string]{
		envKey:       "KAFKA_BROKERS",
		flagKey:      "kafka-brokers",
		defaultValue: nil,
	}
	kafkaTopic = configVar[string]{
		envKey:       "KAFKA_TOPIC",
		flagKey:      "kafka-topic",
		defaultValue: "muzier-events",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of participants in a room")
	pflag.Int(queueLimit.flagKey, queueLimit.defaultValue, "Maximum number of pending songs in a room")
	pflag.Bool(allowAllControls.flagKey, allowAllControls.defaultValue, "Allow every participant to control playback")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.StringSlice(kafkaBrokers.flagKey, kafkaBrokers.defaultValue, "Kafka broker addresses, empty disables events")
	pflag.String(kafkaTopic.flagKey, kafkaTopic.defaultValue, "Kafka topic for domain events")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(queueLimit.flagKey, queueLimit.envKey)
	viper.BindEnv(allowAllControls.flagKey, allowAllControls.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(kafkaBrokers.flagKey, kafkaBrokers.envKey)
	viper.BindEnv(kafkaTopic.flagKey, kafkaTopic.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(queueLimit.flagKey, queueLimit.defaultValue)
	viper.SetDefault(allowAllControls.flagKey, allowAllControls.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(kafkaBrokers.flagKey, kafkaBrokers.defaultValue)
	viper.SetDefault(kafkaTopic.flagKey, kafkaTopic.defaultValue)

	return &app.AppConfig{
		Secret:           viper.GetString(secret.flagKey),
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		MembersLimit:     viper.GetInt(membersLimit.flagKey),
		QueueLimit:       viper.GetInt(queueLimit.flagKey),
		AllowAllControls: viper.GetBool(allowAllControls.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		KafkaBrokers:     viper.GetStringSlice(kafkaBrokers.flagKey),
		KafkaTopic:       viper.GetString(kafkaTopic.flagKey),
	}
}

func main() {
	godotenv.Load()

	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
