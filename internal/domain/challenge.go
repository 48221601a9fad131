package domain

// OTP delivery channels.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// OtpChallenge is a one-time passcode keyed by the identifier it was sent to.
// PK: identifier. A new request for the same identifier overwrites the old
// challenge, so at most one is live per identifier. ExpiresAt doubles as the
// DynamoDB TTL attribute; expiry is still checked at verify time because TTL
// deletion is lazy.
type OtpChallenge struct {
	Identifier string `dynamodbav:"identifier"`
	Code       string `dynamodbav:"code"` // 6 ASCII digits
	Channel    string `dynamodbav:"channel"`
	ExpiresAt  int64  `dynamodbav:"expires_at"` // Unix seconds
	Attempts   int    `dynamodbav:"attempts"`
	CreatedAt  int64  `dynamodbav:"created_at"`
}
