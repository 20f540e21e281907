// Package app assembles the server from configuration. Both the HTTP
// binary and the Lambda entry point build through here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/limbo/lumi/internal/api"
	"github.com/limbo/lumi/internal/repository"
	"github.com/limbo/lumi/internal/service"
	"github.com/limbo/lumi/pkg/config"
	"github.com/limbo/lumi/pkg/dayclock"
	jwtservice "github.com/limbo/lumi/pkg/jwt_service"
	"github.com/limbo/lumi/pkg/metrics"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// NewStore opens the key-value backend selected by STORAGE_DRIVER.
func NewStore(ctx context.Context, cfg *config.Config) (repository.KVStore, error) {
	driver := strings.ToLower(cfg.GetStringOr("STORAGE_DRIVER", DriverPostgres))
	slog.Info("opening storage", slog.String("driver", driver))
	switch driver {
	case DriverPostgres:
		return repository.NewPostgresKV(&repository.PGCfg{
			Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
			Username: cfg.GetString("POSTGRES_USER"),
			Password: cfg.GetString("POSTGRES_PASSWORD"),
			DB:       cfg.GetString("POSTGRES_DB"),
		}), nil
	case DriverSQLite:
		return repository.NewSQLiteKV(cfg.GetStringOr("SQLITE_PATH", "lumi.db"))
	case DriverDynamoDB:
		table := cfg.GetString("DYNAMODB_TABLE")
		if table == "" {
			return nil, fmt.Errorf("DYNAMODB_TABLE is required for the %s driver", DriverDynamoDB)
		}
		var opts []func(*awsconfig.LoadOptions) error
		if region := cfg.GetString("AWS_REGION"); region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		endpoint := cfg.GetString("DYNAMODB_ENDPOINT")
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
		return repository.NewDynamoKV(client, table), nil
	case DriverMemory:
		slog.Warn("memory storage is not persistent")
		return repository.NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

// NewServer wires repositories, services and the HTTP layer over kv.
func NewServer(cfg *config.Config, kv repository.KVStore) (*api.Server, error) {
	secret := cfg.GetString("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	timezone := cfg.GetStringOr("DEFAULT_TIMEZONE", "UTC")
	if _, err := dayclock.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}
	service.InitValidator()

	usersRepo := repository.NewUsersRepo(kv)
	recordsRepo := repository.NewDailyRecordsRepo(kv)
	streaksRepo := repository.NewStreaksRepo(kv)
	clock := dayclock.SystemClock{}

	var origins []string
	for _, o := range strings.Split(cfg.GetStringOr("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	breaker := api.DefaultCircuitBreakerConfig("api")
	breaker.Timeout = cfg.GetDuration("BREAKER_TIMEOUT", breaker.Timeout)

	return api.New(&api.ServicesList{
		UserService:     service.NewUserService(usersRepo, recordsRepo, streaksRepo, clock, timezone),
		TrackingService: service.NewTrackingService(usersRepo, recordsRepo, clock, timezone),
		SummaryService:  service.NewSummaryService(usersRepo, recordsRepo, streaksRepo, clock, timezone),
		JwtService:      jwtservice.New(secret, cfg.GetDuration("TOKEN_TTL", jwtservice.DefaultTokenTTL)),
		Metrics:         metrics.NewCollector("lumi"),
		CORSOrigins:     origins,
		Breaker:         breaker,
	}), nil
}
