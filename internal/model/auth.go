package model

import "github.com/golang-jwt/jwt/v5"

// CandidateClaims are JWT claims for a candidate taking assessments
type CandidateClaims struct {
	CandidateID string `json:"candidateId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for candidate login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token       string `json:"token"`
	CandidateID string `json:"candidateId"`
}
