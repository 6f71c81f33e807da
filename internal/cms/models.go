package cms

import "time"

// Role is the upstream's role name, "User" or "Admin".
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Article struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	UserID     string    `json:"userId"`
	CategoryID string    `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Category   *Category `json:"category,omitempty"`
	User       *User     `json:"user,omitempty"`
}

// Paginated is the upstream list envelope. Older endpoints fill
// total/page/limit, newer ones totalData/currentPage/totalPages; Paginate
// fills both.
type Paginated[T any] struct {
	Data        []T `json:"data"`
	Total       int `json:"total,omitempty"`
	Page        int `json:"page,omitempty"`
	Limit       int `json:"limit,omitempty"`
	TotalData   int `json:"totalData,omitempty"`
	CurrentPage int `json:"currentPage,omitempty"`
	TotalPages  int `json:"totalPages,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterResponse is what /auth/register answers. Token may be empty, in
// which case callers sign in explicitly.
type RegisterResponse struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// Input types carry form tags too so portal handlers can bind HTML forms.

type ArticleInput struct {
	Title      string `json:"title" form:"title"`
	Content    string `json:"content" form:"content"`
	CategoryID string `json:"categoryId" form:"categoryId"`
}

type CategoryInput struct {
	Name string `json:"name" form:"name"`
}

type RegisterInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     Role   `json:"role" form:"role"`
}

// DeleteResult is the loose acknowledgement returned by DELETE endpoints.
type DeleteResult struct {
	Success bool `json:"success,omitempty"`
}
