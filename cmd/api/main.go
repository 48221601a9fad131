package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/growwelltax/intake-api/internal/application/auth"
	"github.com/growwelltax/intake-api/internal/config"
	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/growwelltax/intake-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/growwelltax/intake-api/internal/infrastructure/jwt"
	s3infra "github.com/growwelltax/intake-api/internal/infrastructure/s3"
	"github.com/growwelltax/intake-api/internal/infrastructure/smtp"
	"github.com/growwelltax/intake-api/internal/infrastructure/sns"
	"github.com/growwelltax/intake-api/internal/pkg/id"
	"github.com/growwelltax/intake-api/internal/pkg/sealed"
	transporthttp "github.com/growwelltax/intake-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTokenHours)*time.Hour,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour,
	)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	sealer, err := sealed.New(cfg.ReturnEncryptionKey)
	if err != nil {
		log.Fatalf("return encryption key: %v", err)
	}

	// S3 store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender is optional; fall back to email-only if unavailable.
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	adminRepo := dynamo.NewAdminRepo(dynamoClient, cfg.DynamoTables.AdminUsers)
	if err := seedAdmin(context.Background(), adminRepo, cfg); err != nil {
		log.Printf("WARN: admin seed skipped: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:      dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.UserIdentifiers),
		ChallengeRepo: dynamo.NewChallengeRepo(dynamoClient, cfg.DynamoTables.OtpChallenges),
		AdminRepo:     adminRepo,
		DocumentRepo:  dynamo.NewDocumentRepo(dynamoClient, cfg.DynamoTables.Documents),
		ReturnRepo:    dynamo.NewReturnRepo(dynamoClient, cfg.DynamoTables.TaxReturns),
		S3Store:       s3Store,
		Mailer:        mailer,
		SMSSender:     smsSender,
		JWTProvider:   jwtProvider,
		Sealer:        sealer,
		Logger:        logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// seedAdmin creates the bootstrap super admin when the configured email does
// not exist yet. Without it a fresh deployment has no way to log in to the
// admin panel.
func seedAdmin(ctx context.Context, repo *dynamo.AdminRepo, cfg *config.Config) error {
	if cfg.AdminSeedEmail == "" || cfg.AdminSeedPassword == "" {
		return errors.New("ADMIN_SEED_EMAIL/ADMIN_SEED_PASSWORD not set")
	}
	if _, err := repo.GetByEmail(ctx, cfg.AdminSeedEmail); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminSeedPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &domain.AdminUser{
		AdminID:      id.New(),
		Email:        cfg.AdminSeedEmail,
		Name:         cfg.AdminSeedName,
		Role:         domain.RoleSuperAdmin,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Put(ctx, admin); err != nil {
		return err
	}
	log.Printf("Seeded super admin %s", admin.Email)
	return nil
}
