package model

const (
	RoleAdmin = "admin"
)
