package domain

// User represents an authenticated account in the system.
type User struct {
	Entity
	Email string `json:"email"`
	// PasswordHash is the Argon2id hash of the password.
	// Stored hashed, filter from API responses.
	PasswordHash string `json:"password_hash,omitempty"`
}
