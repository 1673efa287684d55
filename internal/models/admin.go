package models

// RoleAdmin is the role encoded into admin access tokens
const RoleAdmin = 1

// Admin represents an entry of the approved-admins list
type Admin struct {
	AdminID      string
	PasswordHash string
}

// LoginRequest represents an admin login request
type LoginRequest struct {
	AdminID  string `json:"adminId"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}
