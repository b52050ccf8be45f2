package application

type GetUserByIDQuery struct {
	UserID string
}

type GetUserByEmailQuery struct {
	Email string
}

type GetUserByUsernameQuery struct {
	Username string
}

// ListUsersQuery pages through users ordered by creation time ascending.
type ListUsersQuery struct {
	Page     int
	PageSize int
}
