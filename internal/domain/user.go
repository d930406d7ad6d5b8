package domain

import "time"

type UserId = int64

type User struct {
	Id        UserId
	Username  string
	PassHash  string
	Role      *Role // nil means no role attached; uploads are rejected
	Active    bool
	CreatedAt time.Time
}

type Credentials struct {
	Username string `validate:"required" json:"username"`
	Password string `validate:"required" json:"password"`
}
