package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/h30s/muzier/internal/controller"
	"github.com/h30s/muzier/internal/repository/connection/inmemory"
	"github.com/h30s/muzier/internal/repository/room/redis"
	"github.com/h30s/muzier/internal/service/room"
	"github.com/h30s/muzier/pkg/ctxlogger"
	"github.com/h30s/muzier/pkg/events"
	"github.com/h30s/muzier/pkg/redisclient"
	"github.com/h30s/muzier/pkg/videometa"
)

type AppConfig struct {
	Secret           string   `json:"-"`
	Host             string   `json:"host"`
	Port             int      `json:"port"`
	MembersLimit     int      `json:"members_limit"`
	QueueLimit       int      `json:"queue_limit"`
	AllowAllControls bool     `json:"allow_all_controls"`
	LogLevel         string   `json:"log_level"`
	RedisPort        int      `json:"redis_port"`
	RedisHost        string   `json:"redis_host"`
	RedisPassword    string   `json:"-"`
	KafkaBrokers     []string `json:"kafka_brokers"`
	KafkaTopic       string   `json:"kafka_topic"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	// publisher is optional: no brokers configured means no event stream
	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
	}

	roomRepo := redis.NewRepo(rc, 24*14*time.Hour)
	connectionRepo := inmemory.NewRepo()
	resolver := videometa.NewResolver()
	roomService := room.NewService(roomRepo, connectionRepo, resolver, publisherOrNil(publisher), logger, room.Config{
		Secret:           cfg.Secret,
		MembersLimit:     cfg.MembersLimit,
		QueueLimit:       cfg.QueueLimit,
		AllowAllControls: cfg.AllowAllControls,
	})
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}

// publisherOrNil keeps a typed-nil *Publisher from sneaking into the
// service's interface field and defeating its nil check.
func publisherOrNil(p *events.Publisher) room.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
