// Package refid кодирует ID заявки в поле reference_id платежа Square.
//
// Поле reference_id у Square ограничено 40 символами, поэтому текущий формат —
// компактный base32 от байт UUID с префиксом версии. Старые платежи могли быть
// созданы с reference_id в виде голого UUID, их тоже нужно уметь разобрать:
// вебхук по такому платежу может прийти уже после смены формата.
package refid

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// Префикс текущего формата (team change request, версия 1)
const prefix = "tcr1"

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Encode кодирует ID заявки в строку для reference_id.
// Результат: "tcr1" + 26 символов base32, всего 30 символов.
func Encode(requestID uuid.UUID) string {
	return prefix + strings.ToLower(encoding.EncodeToString(requestID[:]))
}

// Decode восстанавливает ID заявки из reference_id.
// Понимает текущий формат и legacy-формат (голый UUID). На любом другом или
// испорченном входе возвращает ok=false — вход приходит от провайдера и
// падать на нем нельзя.
func Decode(reference string) (uuid.UUID, bool) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return uuid.Nil, false
	}

	if strings.HasPrefix(reference, prefix) {
		raw, err := encoding.DecodeString(strings.ToUpper(reference[len(prefix):]))
		if err != nil || len(raw) != 16 {
			return uuid.Nil, false
		}
		id, err := uuid.FromBytes(raw)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, false
		}
		return id, true
	}

	// Legacy: первая версия бэкенда писала request_id как есть
	id, err := uuid.Parse(reference)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
