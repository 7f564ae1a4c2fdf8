package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"os"

	"fra-atlas/internal/dto"
	"fra-atlas/internal/repository"
	"fra-atlas/internal/service"
	"fra-atlas/pkg/config"
	"fra-atlas/pkg/events"
	"fra-atlas/pkg/logger"
	"fra-atlas/pkg/postgres"

	"go.uber.org/zap"
)

//go:embed claims.json
var defaultClaims []byte

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	if cfg.Store.Backend != config.StoreBackendPostgres {
		appLogger.Fatal("Seeding needs the postgres backend; set DATABASE_URL or DB_HOST")
	}

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		appLogger.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	claims, err := loadClaims(os.Getenv("SEED_FILE"))
	if err != nil {
		appLogger.Fatal("Failed to load seed claims", zap.Error(err))
	}

	claimService := service.NewClaimService(repository.NewPostgresStore(db, appLogger), events.Nop{}, appLogger)

	appLogger.Info("Starting database seeding...", zap.Int("claims", len(claims)))
	created, skipped := seedClaims(ctx, claimService, claims, appLogger)
	appLogger.Info("Database seeding completed successfully!",
		zap.Int("created", created),
		zap.Int("skipped", skipped),
	)
}

// loadClaims reads claims from path, or the bundled sample set when path is
// empty.
func loadClaims(path string) ([]dto.CreateClaimRequest, error) {
	data := defaultClaims
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}

	var claims []dto.CreateClaimRequest
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// seedClaims creates every claim that does not exist yet, so the command can
// be re-run safely.
func seedClaims(ctx context.Context, claimService *service.ClaimService, claims []dto.CreateClaimRequest, logger *zap.Logger) (created, skipped int) {
	for i := range claims {
		req := &claims[i]
		if err := dto.Validate(req); err != nil {
			logger.Warn("Skipping invalid seed claim", zap.String("claim_id", req.ClaimID), zap.Error(err))
			skipped++
			continue
		}

		if _, err := claimService.Create(ctx, nil, req); err != nil {
			if errors.Is(err, service.ErrDuplicateClaim) {
				logger.Debug("Claim already seeded", zap.String("claim_id", req.ClaimID))
			} else {
				logger.Error("Failed to seed claim", zap.String("claim_id", req.ClaimID), zap.Error(err))
			}
			skipped++
			continue
		}
		created++
	}
	return created, skipped
}
