package domain

import "time"

const (
	RoleTaxpayer = "taxpayer"

	StatusActive = "active"
)

// User is an end-user (taxpayer) record. A user is reachable by at least one
// of email/phone; each identifier maps to at most one user via the identifier
// ledger (see dynamo.UserRepo).
type User struct {
	UserID      string    `json:"id" dynamodbav:"user_id"`
	FirstName   string    `json:"firstName" dynamodbav:"first_name"`
	LastName    string    `json:"lastName" dynamodbav:"last_name"`
	Email       string    `json:"email,omitempty" dynamodbav:"email"`
	Phone       string    `json:"phone,omitempty" dynamodbav:"phone"`
	Role        string    `json:"role" dynamodbav:"role"`
	Status      string    `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at"`
	LastLoginAt time.Time `json:"lastLoginAt" dynamodbav:"last_login_at"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// UserIdentifier is one row of the identifier ledger: a claim that ties an
// email or phone to exactly one user. Rows are only written inside a
// conditional transaction, which is what makes identifiers unique.
type UserIdentifier struct {
	Identifier string `dynamodbav:"identifier"`
	UserID     string `dynamodbav:"user_id"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}
