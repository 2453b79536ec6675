package ds

import "time"

// 3. Таблица команд
type Team struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	CaptainID uint    `gorm:"not null"`
	Status    string  `gorm:"type:varchar(20);not null;default:'active'"`
	LogoURL   *string `gorm:"type:varchar(255)"` // Nullable, имя объекта в MinIO
	LeagueID  *uint   `gorm:"default:null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// 4. Состав команды (М-М команды-игроки)
type TeamPlayer struct {
	ID           uint   `gorm:"primaryKey"`
	TeamID       uint   `gorm:"not null;index;uniqueIndex:idx_team_player"`
	UserID       uint   `gorm:"not null;index;uniqueIndex:idx_team_player"`
	Role         string `gorm:"type:varchar(30);not null;default:'player'"` // captain, player, substitute
	CanBeDeleted bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// 5. Профиль игрока с игровыми ID по платформам
type Player struct {
	UserID    uint    `gorm:"primaryKey"`
	PSNID     *string `gorm:"type:varchar(100)"`
	XboxID    *string `gorm:"type:varchar(100)"`
	SteamID   *string `gorm:"type:varchar(100)"`
	EpicID    *string `gorm:"type:varchar(100)"`
	OnlineID  *string `gorm:"type:varchar(100)"` // запасное поле для прочих платформ
	UpdatedAt time.Time
}

// 6. Турниры и лиги (справочники для регистраций)
type Tournament struct {
	ID       uint    `gorm:"primaryKey"`
	Name     string  `gorm:"type:varchar(100);not null"`
	EntryFee float64 `gorm:"type:decimal(10,2);not null;default:0"`
	StartsAt *time.Time
}

type League struct {
	ID       uint    `gorm:"primaryKey"`
	Name     string  `gorm:"type:varchar(100);not null"`
	EntryFee float64 `gorm:"type:decimal(10,2);not null;default:0"`
}

// 7. Регистрации (уникальный индекс защищает от повторного исполнения заявки)
type TournamentRegistration struct {
	ID           uint   `gorm:"primaryKey"`
	TournamentID uint   `gorm:"not null;uniqueIndex:idx_tournament_team"`
	TeamID       uint   `gorm:"not null;uniqueIndex:idx_tournament_team"`
	PlayerIDs    []uint `gorm:"serializer:json"`
	CreatedAt    time.Time
}

type LeagueRegistration struct {
	ID        uint   `gorm:"primaryKey"`
	LeagueID  uint   `gorm:"not null;uniqueIndex:idx_league_team_season"`
	TeamID    uint   `gorm:"not null;uniqueIndex:idx_league_team_season"`
	Season    int    `gorm:"not null;default:1;uniqueIndex:idx_league_team_season"`
	PlayerIDs []uint `gorm:"serializer:json"`
	CreatedAt time.Time
}
