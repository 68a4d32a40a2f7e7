package main

import (
	"context"

	"github.com/reviewpilot/reviewpilot/internal/controllers"
	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/internal/managers"
	"github.com/reviewpilot/reviewpilot/internal/middlewares"
	"github.com/reviewpilot/reviewpilot/internal/storage/memory"
	"github.com/reviewpilot/reviewpilot/internal/storage/postgres"
	redisstore "github.com/reviewpilot/reviewpilot/internal/storage/redis"
	"github.com/reviewpilot/reviewpilot/pkg/clients/googlebusiness"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Dependencies contains all wired service dependencies
type Dependencies struct {
	GoogleOAuthController *controllers.GoogleOAuthController
	ReviewController      *controllers.ReviewController
	AccountResolver       middlewares.AccountResolver

	pool        *pgxpool.Pool
	redisClient *goredis.Client
}

// Close releases the storage connections
func (d *Dependencies) Close() {
	if d.pool != nil {
		d.pool.Close()
	}

	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// BuildDependencies creates and wires up all service dependencies
func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	log.Info().Msg("Building service dependencies")

	deps := &Dependencies{}

	var (
		credentialStore domain.CredentialStore
		reviewStore     domain.ReviewStore
	)

	if config.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, config.DatabaseURL)
		if err != nil {
			return nil, err
		}

		deps.pool = pool
		credentialStore = postgres.NewCredentialStore(pool)
		reviewStore = postgres.NewReviewStore(pool)
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory stores (dev mode)")

		credentialStore = memory.NewCredentialStore()
		reviewStore = memory.NewReviewStore()
	}

	var transactionStore domain.AuthorizationTransactionStore

	if config.RedisAddress != "" {
		client, err := redisstore.Connect(ctx, config.RedisAddress, config.RedisPassword)
		if err != nil {
			return nil, err
		}

		deps.redisClient = client
		transactionStore = redisstore.NewTransactionStore(client)
	} else {
		log.Warn().Msg("REDIS_ADDRESS not set, using in-memory transaction store (dev mode)")

		transactionStore = memory.NewTransactionStore()
	}

	oauthSettings := managers.GoogleOAuthSettings{
		ClientID:     config.GoogleClientID,
		ClientSecret: config.GoogleClientSecret,
		RedirectURI:  config.GoogleRedirectURI,
	}

	tokenManager := managers.NewTokenManager(managers.TokenManagerDependencies{
		Credentials: credentialStore,
		OAuth:       oauthSettings,
	})

	googleClient := googlebusiness.NewClient(tokenManager)

	oauthManager := managers.NewOAuthManager(managers.OAuthManagerDependencies{
		Credentials:  credentialStore,
		Transactions: transactionStore,
		Provider:     googleClient,
		OAuth:        oauthSettings,
	})

	reviewManager := managers.NewReviewManager(managers.ReviewManagerDependencies{
		Credentials: credentialStore,
		Reviews:     reviewStore,
		Provider:    googleClient,
	})

	deps.GoogleOAuthController = controllers.NewGoogleOAuthController(controllers.GoogleOAuthControllerDependencies{
		OAuthManager: oauthManager,
		TokenManager: tokenManager,
	})

	deps.ReviewController = controllers.NewReviewController(controllers.ReviewControllerDependencies{
		ReviewManager: reviewManager,
	})

	deps.AccountResolver = middlewares.NewHeaderAccountResolver()

	log.Info().Msg("Service dependencies built successfully")

	return deps, nil
}
