package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/app/ds"

	"gorm.io/gorm"
)

// Методы для работы с заявками на изменение команды

var ErrRequestNotFound = errors.New("заявка не найдена")

func (r *Repository) CreateRequest(ctx context.Context, req *ds.ChangeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) GetRequest(ctx context.Context, id string) (*ds.ChangeRequest, error) {
	var req ds.ChangeRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListTeamRequests возвращает заявки команды, опционально по статусу
func (r *Repository) ListTeamRequests(ctx context.Context, teamID uint, status string) ([]ds.ChangeRequest, error) {
	q := r.db.WithContext(ctx).Where("team_id = ?", teamID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var requests []ds.ChangeRequest
	err := q.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// TransitionRequest — условный перевод статуса (compare-and-swap).
// Обновление проходит только если текущий статус один из from; иначе другой
// писатель (синхронный путь или вебхук) успел раньше, и возвращается false.
// Единственный механизм, защищающий от двойного исполнения.
func (r *Repository) TransitionRequest(ctx context.Context, id string, from []string, updates map[string]interface{}) (bool, error) {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&ds.ChangeRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// RecordRequestFailure переводит заявку в статус-отказ, пишет last_error и
// увеличивает счетчик попыток. Автоматических повторов нет.
func (r *Repository) RecordRequestFailure(ctx context.Context, id string, from []string, toStatus, errMsg string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&ds.ChangeRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":              toStatus,
			"last_error":          errMsg,
			"processing_attempts": gorm.Expr("processing_attempts + 1"),
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
