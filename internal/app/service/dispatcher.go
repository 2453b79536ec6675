package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"backend/internal/app/ds"

	"github.com/sirupsen/logrus"
)

// Dispatcher исполняет действие заявки не более одного раза.
//
// Гарантию дает условный перевод статуса {payment_complete, ready_for_execution}
// -> processing в базе: кто выиграл CAS, тот и исполняет. Мьютекс по ID заявки
// сверху — только быстрый путь для одного процесса, заменой CAS он не является,
// потому что вебхук и синхронная подача могут жить в разных процессах.
type Dispatcher struct {
	requests RequestStore
	teams    TeamStore
	locks    sync.Map // request_id -> *sync.Mutex
}

func NewDispatcher(requests RequestStore, teams TeamStore) *Dispatcher {
	return &Dispatcher{requests: requests, teams: teams}
}

// Dispatch пытается исполнить заявку и возвращает ее итоговый статус.
// Повторный вызов по уже исполненной или исполняющейся заявке ничего не делает.
func (d *Dispatcher) Dispatch(ctx context.Context, requestID string) (string, error) {
	v, _ := d.locks.LoadOrStore(requestID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer func() {
		mu.Unlock()
		d.locks.Delete(requestID)
	}()

	req, err := d.requests.GetRequest(ctx, requestID)
	if err != nil {
		return "", err
	}

	if ds.IsTerminalStatus(req.Status) {
		return req.Status, nil
	}

	ok, err := d.requests.TransitionRequest(ctx, requestID,
		[]string{ds.StatusPaymentComplete, ds.StatusReadyForExecution},
		map[string]interface{}{"status": ds.StatusProcessing})
	if err != nil {
		return "", err
	}
	if !ok {
		// CAS проиграли: другой писатель уже забрал заявку или она еще не
		// готова к исполнению. Это не ошибка.
		cur, err := d.requests.GetRequest(ctx, requestID)
		if err != nil {
			return "", err
		}
		logrus.Debugf("заявка %s уже занята, статус %s", requestID, cur.Status)
		return cur.Status, nil
	}

	result, execErr := d.execute(ctx, req)
	if execErr != nil {
		logrus.Errorf("исполнение заявки %s (%s) провалилось: %v", requestID, req.RequestType, execErr)
		if _, ferr := d.requests.RecordRequestFailure(ctx, requestID,
			[]string{ds.StatusProcessing}, ds.StatusFailed, execErr.Error()); ferr != nil {
			return "", ferr
		}
		// Ошибка исполнения доходит до вызывающего только через статус заявки
		return ds.StatusFailed, nil
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("не удалось сериализовать результат: %w", err)
	}
	resultStr := string(resultJSON)
	now := time.Now()

	if _, err := d.requests.TransitionRequest(ctx, requestID,
		[]string{ds.StatusProcessing},
		map[string]interface{}{
			"status":       ds.StatusCompleted,
			"processed_at": now,
			"result":       resultStr,
		}); err != nil {
		return "", err
	}

	logrus.Infof("заявка %s (%s) исполнена", requestID, req.RequestType)
	return ds.StatusCompleted, nil
}

// execute — реестр исполнителей, по одному на тип заявки.
// Повтор исполнителя по уже измененному состоянию либо идемпотентен (upsert),
// либо отбивается уникальным индексом в хранилище.
func (d *Dispatcher) execute(ctx context.Context, req *ds.ChangeRequest) (map[string]interface{}, error) {
	switch req.RequestType {
	case ds.TypeTeamTransfer:
		if err := d.teams.TransferTeamOwnership(ctx, req.TeamID, *req.NewCaptainID); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"team_id":        req.TeamID,
			"new_captain_id": *req.NewCaptainID,
		}, nil

	case ds.TypeRosterChange:
		switch *req.Operation {
		case "add":
			playerRole := "player"
			if req.NewRole != nil && *req.NewRole != "" {
				playerRole = *req.NewRole
			}
			if err := d.teams.UpsertTeamPlayer(ctx, req.TeamID, *req.PlayerID, playerRole); err != nil {
				return nil, err
			}
		case "remove":
			if err := d.teams.RemoveTeamPlayer(ctx, req.TeamID, *req.PlayerID); err != nil {
				return nil, err
			}
		case "update":
			if err := d.teams.UpdateTeamPlayerRole(ctx, req.TeamID, *req.PlayerID, *req.NewRole); err != nil {
				return nil, err
			}
		}
		return map[string]interface{}{
			"team_id":   req.TeamID,
			"player_id": *req.PlayerID,
			"operation": *req.Operation,
		}, nil

	case ds.TypeTournamentRegistration:
		regID, err := d.teams.RegisterTeamForTournament(ctx, *req.TournamentID, req.TeamID, req.PlayerIDs)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"registration_id": regID,
			"tournament_id":   *req.TournamentID,
			"team_id":         req.TeamID,
		}, nil

	case ds.TypeLeagueRegistration:
		regID, err := d.teams.RegisterTeamForLeague(ctx, *req.LeagueID, req.TeamID, *req.Season, req.PlayerIDs)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"registration_id": regID,
			"league_id":       *req.LeagueID,
			"team_id":         req.TeamID,
			"season":          *req.Season,
		}, nil

	case ds.TypeTeamRebrand:
		if err := d.teams.RenameTeam(ctx, req.TeamID, *req.NewName, req.NewLogo); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"team_id":  req.TeamID,
			"new_name": *req.NewName,
		}, nil

	case ds.TypeOnlineIDChange:
		if err := d.teams.UpdatePlayerOnlineID(ctx, *req.PlayerID, *req.Platform, *req.NewOnlineID); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"player_id":     *req.PlayerID,
			"platform":      *req.Platform,
			"new_online_id": *req.NewOnlineID,
		}, nil

	case ds.TypeTeamCreation:
		team := &ds.Team{
			Name:      *req.TeamName,
			CaptainID: *req.CaptainID,
			Status:    "active",
		}
		team.LogoURL = req.NewLogo
		if err := d.teams.CreateTeamWithCaptain(ctx, team); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"team_id":   team.ID,
			"team_name": team.Name,
		}, nil

	default:
		return nil, fmt.Errorf("нет исполнителя для типа %s", req.RequestType)
	}
}
