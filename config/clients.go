package config

import (
	"context"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Clients bundles the external handles the pipeline reuses across
// invocations. Handles are read-only after construction, so sharing one
// bundle across goroutines is safe.
type Clients struct {
	Redis *redis.Client
	FCM   *messaging.Client
}

var (
	clientsOnce sync.Once
	clients     *Clients
)

// GetClients builds the bundle once per process and returns the same
// instance afterward. Gateways that fail to initialize are left nil and
// their services degrade to logged no-ops.
func GetClients(cfg *Config) *Clients {
	clientsOnce.Do(func() {
		clients = &Clients{
			Redis: initRedis(cfg),
			FCM:   initFCM(cfg),
		}
	})
	return clients
}

func initRedis(cfg *Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Warnf("Invalid Redis URL, using defaults: %v", err)
		opt = &redis.Options{Addr: "localhost:6379"}
	}

	return redis.NewClient(opt)
}

func initFCM(cfg *Config) *messaging.Client {
	if cfg.FirebaseCredentials == "" {
		logrus.Warn("Firebase credentials not configured, push delivery disabled")
		return nil
	}

	ctx := context.Background()
	opt := option.WithCredentialsFile(cfg.FirebaseCredentials)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		logrus.Errorf("Failed to initialize Firebase: %v", err)
		return nil
	}

	fcmClient, err := app.Messaging(ctx)
	if err != nil {
		logrus.Errorf("Failed to get FCM client: %v", err)
		return nil
	}

	return fcmClient
}
