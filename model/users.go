package model

import "time"

type User struct {
	UserID       UserID    `bson:"user_id" json:"user_id"`                                   // Unique ID number
	Username     string    `bson:"username" json:"username" binding:"required,min=4,max=20"` // Username field
	Email        string    `bson:"email" json:"email" binding:"required,email"`              // Email field
	Password     string    `bson:"password" json:"password" binding:"required,password"`     // Hashed password field
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`                               // Time created for account life
	Token        string    `bson:"token" json:"token"`                                       // JWT Token
	RefreshToken string    `bson:"refresh_token" json:"refresh_token"`                       // refreshed token
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
