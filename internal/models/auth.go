package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string `json:"userId"`
	Telefone string `json:"telefone"`
	Login    string `json:"login"`
	jwt.RegisteredClaims
}

// Credentials identify one portal account for the duration of a workflow.
type Credentials struct {
	Login    string
	Password string
}
