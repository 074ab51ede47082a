package dto

// LoginRequest carries email-or-username credentials.
type LoginRequest struct {
	Login    string `form:"login" json:"login" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// LoginResponse returns the signed token and the resolved role.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
