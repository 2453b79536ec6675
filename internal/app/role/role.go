package role

// Role роль пользователя в системе
type Role int

const (
	Player  Role = iota // обычный игрок
	Captain             // капитан команды
	Admin               // администратор лиги
)

func (r Role) String() string {
	switch r {
	case Player:
		return "player"
	case Captain:
		return "captain"
	case Admin:
		return "admin"
	}
	return "unknown"
}
