package models

import "time"

// Cliente simples, sem login, vinculado à conta
type Client struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AccountID uint `gorm:"index" json:"account_id"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:20" json:"phone"`
	Email string `gorm:"size:100" json:"email"`
	Notes string `gorm:"size:255" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
