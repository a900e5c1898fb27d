package models

import (
	"time"
)

const (
	RoleLevelUser  = 1
	RoleLevelAdmin = 100
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         int    `gorm:"not null"                 json:"role"`
}

type RevokedToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	JTI       string    `gorm:"unique;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
}

type Theme struct {
	UUID    string `gorm:"primaryKey" json:"theme_uuid"`
	TitleEn string `gorm:"not null"   json:"theme_en"`
	TitleFr string `gorm:"not null"   json:"theme_fr"`
}

type Parent struct {
	UUID      string `gorm:"primaryKey"     json:"parent_uuid"`
	ThemeUUID string `gorm:"index;not null" json:"theme_uuid"`
	TitleEn   string `gorm:"not null"       json:"parent_en"`
	TitleFr   string `gorm:"not null"       json:"parent_fr"`
}
