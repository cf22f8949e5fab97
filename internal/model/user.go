package model

import "time"

type User struct {
	ID           int64
	Name         string
	Password     string // hashed
	Phone        string
	Email        string
	Gender       bool // true = female
	Picture      string
	Nickname     string
	IsSuperAdmin bool
	CollegeID    *int64
	Created      time.Time
	Updated      time.Time
	LastLogin    *time.Time
}

type Role struct {
	ID          int64
	Name        string
	DisplayName string
	Created     time.Time
}

type College struct {
	ID   int64
	Name string
}

// Official is the (id, name) pair returned when resolving the officers
// responsible for a task. ID is a string because the whole-staff marker
// uses the literal id "all".
type Official struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
