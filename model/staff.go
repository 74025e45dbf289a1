package model

import "strings"

type Staff struct {
	ID         int64
	ChatID     int64
	FirstName  string
	LastName   string
	Patronymic string
	Email      string
	IsAdmin    bool
}

// DisplayName is the row label used by the capacity schedule.
func (s Staff) DisplayName() string {
	return joinName(s.LastName, s.FirstName, s.Patronymic)
}

func joinName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

type CreateStaffRequest struct {
	ChatID     int64  `json:"chat_id" validate:"required,gt=0"`
	FirstName  string `json:"first_name" validate:"required,max=30"`
	LastName   string `json:"last_name" validate:"required,max=30"`
	Patronymic string `json:"patronymic" validate:"max=30"`
	Email      string `json:"email" validate:"required,email,max=100"`
	IsAdmin    bool   `json:"is_admin"`
}

type StaffResponse struct {
	ID      int64  `json:"id"`
	ChatID  int64  `json:"chat_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
