package di

import (
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/infrastructure/config"
	"github.com/whikwon/nexusnote/interfaces/http/rest"
	"github.com/whikwon/nexusnote/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Router  *rest.Router
	Limiter *auth.TokenBucketLimiter
}
