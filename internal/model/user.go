package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a tenant account. Users own products and invoices.
type User struct {
	BaseModel
	Username string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password string  `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Role     Role    `gorm:"type:varchar(20);not null;default:user;index" json:"role"`
	Status   Status  `gorm:"type:varchar(20);not null;default:active;index" json:"status"`
	Email    *string `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Phone    string  `gorm:"type:varchar(20)" json:"phone"`
	ShopType string  `gorm:"type:varchar(100);not null" json:"shop_type"`
	Location string  `gorm:"type:varchar(255)" json:"location"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// OwnerID lets a user record pass through the same ownership checks as
// products and invoices: every account owns itself.
func (u User) OwnerID() uuid.UUID { return u.ID }

func (u *User) IsAdmin() bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	Email     *string   `json:"email,omitempty"`
	Phone     string    `json:"phone"`
	ShopType  string    `json:"shop_type"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Status:    u.Status,
		Email:     u.Email,
		Phone:     u.Phone,
		ShopType:  u.ShopType,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

func ToResponses(users []User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out
}
