package models

import "time"

// Roles a user can hold.
const (
	RoleAdmin       = "admin"
	RoleUser        = "user"
	RoleFuncionario = "funcionario"
)

// Identity providers that can create a user row.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents an account owning a set of transactions.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:16;not null;default:user"`
	Provider     string `gorm:"size:16;not null;default:local"`

	// company profile, editable only by the owning user
	NomeEmpresa      *string `gorm:"size:255"`
	CnpjCpf          *string `gorm:"size:32"`
	EmailContato     *string `gorm:"size:255"`
	Telefone         *string `gorm:"size:32"`
	EnderecoCompleto *string `gorm:"size:512"`

	FailedLoginAttempts int        `gorm:"default:0"` // 连续登录失败次数
	LockedUntil         *time.Time `gorm:"index"`     // 账户锁定到期时间
	LastLoginAt         *time.Time                     // 最近登录时间

	CreatedAt time.Time
	UpdatedAt time.Time

	Transactions []Transaction `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
