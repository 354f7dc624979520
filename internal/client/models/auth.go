package models

// AuthResult is the payload of login, register and OTP verification.
// Register may answer with RequiresVerification and no token; the caller
// then has to collect the emailed code and call VerifyOTP.
type AuthResult struct {
	User                 *User  `json:"user,omitempty"`
	Token                string `json:"token,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
	Email                string `json:"email,omitempty"`
}

// HasSession reports whether the result carries everything a session needs.
func (r *AuthResult) HasSession() bool {
	return r != nil && r.User != nil && r.Token != ""
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Organization    string `json:"organization,omitempty"`
}

type OTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}
