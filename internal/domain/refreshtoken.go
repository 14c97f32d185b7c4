package domain

import "time"

// RefreshTokenRecord is the durable side of an issued refresh token.
// A token that has no record — because it was rotated, revoked, or
// TTL-expired — cannot be exchanged for a new pair.
type RefreshTokenRecord struct {
	Token     string    `json:"-" dynamodbav:"token"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // unix seconds, DynamoDB TTL attribute
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
