package auth_models

// User represents a row of the userdata table
type User struct {
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	NoTelp   string `json:"no_telp" db:"no_telp"`
	Password string `json:"-" db:"password"` // bcrypt hash, never exposed
}

// NewUser creates a new User instance. passwordHash must already be hashed.
func NewUser(username, email, noTelp, passwordHash string) *User {
	return &User{
		Username: username,
		Email:    email,
		NoTelp:   noTelp,
		Password: passwordHash,
	}
}
