package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/app/ds"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Методы для работы с командами и составами.
// Мутации пишутся так, чтобы повтор по уже измененному состоянию был либо
// естественно идемпотентным (upsert), либо отбивался уникальным индексом.

var ErrTeamNotFound = errors.New("команда не найдена")

func (r *Repository) GetTeams(ctx context.Context) ([]ds.Team, error) {
	var teams []ds.Team
	err := r.db.WithContext(ctx).Where("status = ?", "active").Order("name").Find(&teams).Error
	return teams, err
}

func (r *Repository) GetTeamByID(ctx context.Context, id uint) (*ds.Team, error) {
	var team ds.Team
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *Repository) GetTeamPlayers(ctx context.Context, teamID uint) ([]ds.TeamPlayer, error) {
	var players []ds.TeamPlayer
	err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&players).Error
	return players, err
}

// TransferTeamOwnership меняет капитана команды.
// Повтор с тем же новым капитаном ничего не ломает.
func (r *Repository) TransferTeamOwnership(ctx context.Context, teamID, newCaptainID uint) error {
	result := r.db.WithContext(ctx).Model(&ds.Team{}).
		Where("id = ?", teamID).
		Updates(map[string]interface{}{
			"captain_id": newCaptainID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}

	// Роль в составе тоже обновляем, если новый капитан уже в команде
	return r.db.WithContext(ctx).Model(&ds.TeamPlayer{}).
		Where("team_id = ? AND user_id = ?", teamID, newCaptainID).
		Updates(map[string]interface{}{
			"role":       "captain",
			"updated_at": time.Now(),
		}).Error
}

// RenameTeam применяет ребрендинг (имя и, опционально, логотип)
func (r *Repository) RenameTeam(ctx context.Context, teamID uint, newName string, newLogo *string) error {
	updates := map[string]interface{}{
		"name":       newName,
		"updated_at": time.Now(),
	}
	if newLogo != nil && *newLogo != "" {
		updates["logo_url"] = *newLogo
	}

	result := r.db.WithContext(ctx).Model(&ds.Team{}).Where("id = ?", teamID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// UpsertTeamPlayer добавляет игрока в состав (upsert по паре team/user)
func (r *Repository) UpsertTeamPlayer(ctx context.Context, teamID, userID uint, playerRole string) error {
	player := ds.TeamPlayer{
		TeamID:       teamID,
		UserID:       userID,
		Role:         playerRole,
		CanBeDeleted: true,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&player).Error
}

func (r *Repository) RemoveTeamPlayer(ctx context.Context, teamID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ? AND can_be_deleted = ?", teamID, userID, true).
		Delete(&ds.TeamPlayer{}).Error
}

func (r *Repository) UpdateTeamPlayerRole(ctx context.Context, teamID, userID uint, newRole string) error {
	result := r.db.WithContext(ctx).Model(&ds.TeamPlayer{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Updates(map[string]interface{}{
			"role":       newRole,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("игрок не найден в составе команды")
	}
	return nil
}

// UpdatePlayerOnlineID обновляет игровой ID на указанной платформе
func (r *Repository) UpdatePlayerOnlineID(ctx context.Context, userID uint, platform, newOnlineID string) error {
	column := "online_id"
	switch platform {
	case "psn":
		column = "psn_id"
	case "xbox":
		column = "xbox_id"
	case "steam":
		column = "steam_id"
	case "epic":
		column = "epic_id"
	}

	player := ds.Player{UserID: userID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&player).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&ds.Player{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			column:       newOnlineID,
			"updated_at": time.Now(),
		}).Error
}

// CreateTeamWithCaptain создает команду и добавляет капитана в состав.
// Уникальный индекс по имени отбивает повторное создание.
func (r *Repository) CreateTeamWithCaptain(ctx context.Context, team *ds.Team) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}

		captain := ds.TeamPlayer{
			TeamID:       team.ID,
			UserID:       team.CaptainID,
			Role:         "captain",
			CanBeDeleted: false,
		}
		return tx.Create(&captain).Error
	})
}

// RegisterTeamForTournament — уникальный индекс (tournament_id, team_id)
// защищает от повторной регистрации
func (r *Repository) RegisterTeamForTournament(ctx context.Context, tournamentID, teamID uint, playerIDs []uint) (uint, error) {
	reg := ds.TournamentRegistration{
		TournamentID: tournamentID,
		TeamID:       teamID,
		PlayerIDs:    playerIDs,
	}
	if err := r.db.WithContext(ctx).Create(&reg).Error; err != nil {
		return 0, err
	}
	return reg.ID, nil
}

func (r *Repository) RegisterTeamForLeague(ctx context.Context, leagueID, teamID uint, season int, playerIDs []uint) (uint, error) {
	reg := ds.LeagueRegistration{
		LeagueID:  leagueID,
		TeamID:    teamID,
		Season:    season,
		PlayerIDs: playerIDs,
	}
	if err := r.db.WithContext(ctx).Create(&reg).Error; err != nil {
		return 0, err
	}
	return reg.ID, nil
}

// UpdateTeamLogo сохраняет имя загруженного в MinIO логотипа
func (r *Repository) UpdateTeamLogo(ctx context.Context, teamID uint, logoURL string) error {
	result := r.db.WithContext(ctx).Model(&ds.Team{}).
		Where("id = ?", teamID).
		Updates(map[string]interface{}{
			"logo_url":   logoURL,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}
