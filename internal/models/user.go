package models

// Role - роль пользователя площадки.
type Role string

const (
	BuyerRole  Role = "buyer"  // Аптека
	SellerRole Role = "seller" // Оптовик
	AdminRole  Role = "admin"
)

// ActingUser - уже аутентифицированный пользователь, от имени которого выполняется операция.
type ActingUser struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
}

func (u ActingUser) IsBuyer() bool  { return u.Role == BuyerRole }
func (u ActingUser) IsSeller() bool { return u.Role == SellerRole }
func (u ActingUser) IsAdmin() bool  { return u.Role == AdminRole }

// ValidRole проверяет, что роль известна.
func ValidRole(r Role) bool {
	switch r {
	case BuyerRole, SellerRole, AdminRole:
		return true
	default:
		return false
	}
}
