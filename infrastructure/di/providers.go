package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/application/services"
	domainconfig "github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/infrastructure/config"
	"github.com/whikwon/nexusnote/infrastructure/messaging/eventbridge"
	"github.com/whikwon/nexusnote/infrastructure/messaging/logging"
	"github.com/whikwon/nexusnote/infrastructure/persistence/dynamodb"
	"github.com/whikwon/nexusnote/infrastructure/persistence/memory"
	"github.com/whikwon/nexusnote/infrastructure/storage"
	"github.com/whikwon/nexusnote/interfaces/http/rest"
	"github.com/whikwon/nexusnote/pkg/auth"
	"github.com/whikwon/nexusnote/pkg/observability"
)

const serviceName = "nexusnote"

// Repositories groups the four repositories of one storage backend
type Repositories struct {
	Documents   ports.DocumentRepository
	Annotations ports.AnnotationRepository
	Concepts    ports.ConceptRepository
	Links       ports.LinkRepository
}

// ProvideLogger creates a new logger instance at the configured level
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build(zap.Fields(zap.String("service", serviceName), zap.String("env", cfg.Environment)))
}

// ProvideDomainConfig selects the domain rules for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if err := domainCfg.Validate(); err != nil {
		return nil, err
	}
	return domainCfg, nil
}

// ProvideAWSConfig creates AWS configuration. Deployments that use no AWS
// service get an empty config and never touch the credential chain.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if !cfg.UsesAWS() {
		return aws.Config{Region: cfg.AWSRegion}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideRepositories returns the repositories of the configured backend
func ProvideRepositories(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (Repositories, error) {
	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		table := dynamodb.NewTable(client, cfg.DynamoDBTable, cfg.IndexName, logger)
		logger.Info("Using DynamoDB storage", zap.String("table", cfg.DynamoDBTable))
		return Repositories{
			Documents:   table.Documents(),
			Annotations: table.Annotations(),
			Concepts:    table.Concepts(),
			Links:       table.Links(),
		}, nil
	case config.StorageMemory, "":
		store := memory.NewStore()
		logger.Info("Using in-memory storage")
		return Repositories{
			Documents:   store.Documents(),
			Annotations: store.Annotations(),
			Concepts:    store.Concepts(),
			Links:       store.Links(),
		}, nil
	default:
		return Repositories{}, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideBlobStore keeps uploads under BLOB_ROOT, or in memory when it is ":memory:"
func ProvideBlobStore(cfg *config.Config, logger *zap.Logger) (ports.BlobStore, error) {
	if cfg.BlobRoot == "" || cfg.BlobRoot == ":memory:" {
		return storage.NewMemoryBlobStore(logger)
	}
	return storage.NewDiskBlobStore(cfg.BlobRoot, logger)
}

// ProvideEventPublisher sends domain events to EventBridge, or to the log when events are off
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EnableEvents && cfg.EventBusName != "" {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return logging.NewPublisher(logger)
}

// ProvideMetrics creates the CloudWatch sink, or nil when metrics are off
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	namespace := fmt.Sprintf("NexusNote/%s", cfg.Environment)
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideInstruments bundles the tracer and metric sinks
func ProvideInstruments(tracer *observability.Tracer, metrics *observability.Metrics, collector *observability.Collector) *services.Instruments {
	return &services.Instruments{
		Tracer:    tracer,
		Metrics:   metrics,
		Collector: collector,
	}
}

// ProvideJWTValidator verifies RS256 tokens when JWT_PUBLIC_KEY is set and HS256
// tokens when JWT_SECRET is set. With neither, authentication is disabled.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.JWTPublicKey != "" {
		return auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "RS256",
			PublicKey:     cfg.JWTPublicKey,
			Issuer:        cfg.JWTIssuer,
			Audience:      []string{auth.DefaultAudience},
		})
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; API authentication is disabled")
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
		Audience:      []string{auth.DefaultAudience},
	})
}

// ProvideTokenBucketLimiter returns nil when RATE_LIMIT_RPS is not positive
func ProvideTokenBucketLimiter(cfg *config.Config) *auth.TokenBucketLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	return auth.NewTokenBucketLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

// ProvideIPRateLimiter keys the token buckets by client IP
func ProvideIPRateLimiter(limiter *auth.TokenBucketLimiter) *auth.IPRateLimiter {
	if limiter == nil {
		return nil
	}
	return auth.NewIPRateLimiter(limiter)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	documents *services.DocumentService,
	annotations *services.AnnotationService,
	concepts *services.ConceptService,
	links *services.LinkService,
	validator *auth.JWTValidator,
	limiter *auth.IPRateLimiter,
	collector *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(documents, annotations, concepts, links, validator, limiter, collector, rest.Options{
		ServiceName:    serviceName,
		MaxUploadBytes: cfg.MaxUploadBytes,
		EnableCORS:     cfg.EnableCORS,
		EnableTracing:  cfg.EnableTracing,
		Debug:          cfg.IsDevelopment(),
	}, logger)
}
