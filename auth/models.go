package auth

import "time"

type Role string

const (
	// RoleCarrier callers are bound to a single company.
	RoleCarrier Role = "carrier"
	// RoleOperator callers may read any company and the system snapshots.
	RoleOperator Role = "operator"
)

// Client is an API client that exchanges a secret for a bearer token.
type Client struct {
	ID         string
	SecretHash string
	CompanyID  string
	Role       Role
}

// Claims is what a verified token asserts about its caller.
type Claims struct {
	Subject   string
	CompanyID string
	Role      Role
	ExpiresAt time.Time
}

// TokenRequest carries client credentials supplied by callers.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}
