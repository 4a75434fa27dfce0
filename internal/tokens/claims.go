package tokens

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload carried by every session token. Which identity
// fields are set depends on the namespace the token was issued for.
type Claims struct {
	Role      string `json:"role"`
	RollNo    string `json:"roll_no,omitempty"`
	StudentID uint   `json:"student_id,omitempty"`
	ClerkID   uint   `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
