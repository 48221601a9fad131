package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail       = "email"
	fieldPhone       = "phone"
	fieldFirstName   = "first_name"
	fieldLastName    = "last_name"
	fieldLastLoginAt = "last_login_at"
	fieldUpdatedAt   = "updated_at"
)
