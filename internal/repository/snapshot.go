package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
)

// SnapshotRepository сохраняет реестр подписок в JSON-файл между запусками:
// запись при остановке сервиса, загрузка при старте.
type SnapshotRepository struct {
	path string
	log  *logger.Logger
}

// NewSnapshotRepository создает репозиторий снапшотов
func NewSnapshotRepository(path string, log *logger.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		path: path,
		log:  log,
	}
}

// Save записывает реестр подписок в файл
func (r *SnapshotRepository) Save(subs map[domain.Address]domain.Subscription) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Пишем во временный файл и переименовываем, чтобы не оставить
	// полузаписанный снапшот
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	r.log.Infow("Saved subscription snapshot", "path", r.path, "count", len(subs))
	return nil
}

// Load читает реестр подписок из файла. Отсутствующий файл не ошибка:
// возвращается пустой реестр.
func (r *SnapshotRepository) Load() (map[domain.Address]domain.Subscription, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.Debugw("Snapshot file does not exist", "path", r.path)
			return map[domain.Address]domain.Subscription{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var subs map[domain.Address]domain.Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal snapshot: %v", ErrInvalidData, err)
	}

	r.log.Infow("Loaded subscription snapshot", "path", r.path, "count", len(subs))
	return subs, nil
}
