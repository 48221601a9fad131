package http

import (
	"log/slog"

	"github.com/growwelltax/intake-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/growwelltax/intake-api/internal/infrastructure/jwt"
	s3infra "github.com/growwelltax/intake-api/internal/infrastructure/s3"
	"github.com/growwelltax/intake-api/internal/infrastructure/smtp"
	"github.com/growwelltax/intake-api/internal/infrastructure/sns"
	"github.com/growwelltax/intake-api/internal/pkg/sealed"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo      *dynamo.UserRepo
	ChallengeRepo *dynamo.ChallengeRepo
	AdminRepo     *dynamo.AdminRepo
	DocumentRepo  *dynamo.DocumentRepo
	ReturnRepo    *dynamo.ReturnRepo
	S3Store       *s3infra.Store
	Mailer        smtp.Mailer
	SMSSender     sns.SMSSender
	JWTProvider   *jwtinfra.Provider
	Sealer        *sealed.Sealer
	Logger        *slog.Logger
}
