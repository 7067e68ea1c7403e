package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/pkg/database"
)

const scheduleSlotColumns = "id, station_id, oap_id, show_title, start_time, end_time, weekday, description, thumbnail_url, position, created_at, updated_at"

// ScheduleRepository persists weekly schedule slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByStation returns every slot of a station in the order the editor saved them.
func (r *ScheduleRepository) ListByStation(ctx context.Context, stationID string) ([]models.ScheduleSlot, error) {
	query := "SELECT " + scheduleSlotColumns + " FROM schedule_slots WHERE station_id = $1 ORDER BY position ASC, created_at ASC"
	slots := make([]models.ScheduleSlot, 0)
	if err := r.db.SelectContext(ctx, &slots, query, stationID); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a slot by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	query := "SELECT " + scheduleSlotColumns + " FROM schedule_slots WHERE id = $1"
	var slot models.ScheduleSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule slot: %w", err)
	}
	return &slot, nil
}

// ForeignIDs returns the ids among ids that are already held by a station other than stationID.
func (r *ScheduleRepository) ForeignIDs(ctx context.Context, stationID string, ids []string) ([]string, error) {
	taken := make([]string, 0)
	if len(ids) == 0 {
		return taken, nil
	}
	const query = "SELECT id FROM schedule_slots WHERE id = ANY($1) AND station_id <> $2"
	if err := r.db.SelectContext(ctx, &taken, query, pq.Array(ids), stationID); err != nil {
		return nil, fmt.Errorf("check schedule slot ids: %w", err)
	}
	return taken, nil
}

// ReplaceForStation swaps the whole slot set of a station inside one transaction.
// Concurrent saves are last-write-wins.
func (r *ScheduleRepository) ReplaceForStation(ctx context.Context, stationID string, slots []models.ScheduleSlot) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_slots WHERE station_id = $1", stationID); err != nil {
			return fmt.Errorf("clear schedule slots: %w", err)
		}
		return r.bulkInsert(ctx, tx, stationID, slots)
	})
}

func (r *ScheduleRepository) bulkInsert(ctx context.Context, exec sqlx.ExtContext, stationID string, slots []models.ScheduleSlot) error {
	const query = `INSERT INTO schedule_slots (id, station_id, oap_id, show_title, start_time, end_time, weekday, description, thumbnail_url, position, created_at, updated_at) VALUES (:id, :station_id, :oap_id, :show_title, :start_time, :end_time, :weekday, :description, :thumbnail_url, :position, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.StationID = stationID
		slot.Position = i
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		slot.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, query, slot); err != nil {
			return fmt.Errorf("insert schedule slot %d: %w", i, err)
		}
	}
	return nil
}

// Delete removes a single slot.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedule_slots WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete schedule slot: %w", err)
	}
	return nil
}
