package application

// Command type tags. The set is closed: the consumer dispatches over these
// with an exhaustive switch rather than a dynamic registry.
const (
	CommandCreateUser     = "create_user"
	CommandUpdateUser     = "update_user"
	CommandDeactivateUser = "deactivate_user"
	CommandActivateUser   = "activate_user"
)

// CreateUserCommand carries everything needed to create one user.
type CreateUserCommand struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// UpdateUserCommand updates profile fields; nil means "leave unchanged".
type UpdateUserCommand struct {
	UserID    string  `json:"user_id"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type DeactivateUserCommand struct {
	UserID string `json:"user_id"`
}

type ActivateUserCommand struct {
	UserID string `json:"user_id"`
}
