package ds

// 9. Таблица пользователей
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Login    string `gorm:"type:varchar(50);unique;not null"`
	Password string `gorm:"type:varchar(255);not null"`
	Role     int    `gorm:"type:int;default:0;not null"` // 0 player, 1 captain, 2 admin
	Email    string `gorm:"type:varchar(100)"`
	FullName string `gorm:"type:varchar(100)"`
}
