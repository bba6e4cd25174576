//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideRepositories,
	wire.FieldsOf(new(Repositories), "Documents", "Annotations", "Concepts", "Links"),
	ProvideBlobStore,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideTracer,
	ProvideCollector,
	ProvideInstruments,
	services.NewLinkService,
	services.NewConceptService,
	services.NewAnnotationService,
	services.NewDocumentService,
	ProvideJWTValidator,
	ProvideTokenBucketLimiter,
	ProvideIPRateLimiter,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
