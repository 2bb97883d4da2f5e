package dto

// CreateUsuarioRequest registers a teacher phone number for a portal login.
type CreateUsuarioRequest struct {
	Telefone    string `json:"telefone" validate:"required"`
	Login       string `json:"login" validate:"required"`
	AdminAPIKey string `json:"adminApiKey"`
}

// TokenRequest exchanges a registered phone number for an access token.
type TokenRequest struct {
	Telefone string `json:"telefone" validate:"required"`
	APIKey   string `json:"apiKey"`
}

// TokenResponse is returned by POST /token.
type TokenResponse struct {
	Sucesso  bool   `json:"sucesso"`
	Token    string `json:"token"`
	ExpiraEm string `json:"expiraEm"`
	Login    string `json:"login"`
}
