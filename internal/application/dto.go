package application

import (
	"time"

	"github.com/hexcontexts/user-service/internal/domain/entity"
)

// UserDTO is the outward representation of a user. The password hash never
// leaves the aggregate.
type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserListDTO struct {
	Users    []UserDTO `json:"users"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

func toDTO(u *entity.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Email:     u.Email().String(),
		Username:  u.Username().String(),
		FirstName: u.FullName().First(),
		LastName:  u.FullName().Last(),
		FullName:  u.FullName().String(),
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}
