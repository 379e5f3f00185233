package models

// Role — роль пользователя. Проверяется только в authorization gate,
// хендлеры со строками не сравнивают.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User представляет пользователя, ключ — email
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Role     Role   `json:"role"`
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
