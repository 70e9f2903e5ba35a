package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/feedesk-api/internal/models"
)

// SettingsRepository manages the singleton settings row.
type SettingsRepository interface {
	GetMonthlyFee(ctx context.Context) (int, bool, error)
	SetMonthlyFee(ctx context.Context, fee int) error
	EnsureDefaults(ctx context.Context, fee int) (bool, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository constructs a settings repository.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetMonthlyFee(ctx context.Context) (int, bool, error) {
	var settings models.AppSettings
	err := r.db.WithContext(ctx).First(&settings, models.AppSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return settings.MonthlyFee, true, nil
}

func (r *settingsRepository) SetMonthlyFee(ctx context.Context, fee int) error {
	settings := models.AppSettings{ID: models.AppSettingsID, MonthlyFee: fee}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"monthly_fee", "updated_at"}),
	}).Create(&settings).Error
}

// EnsureDefaults creates the settings row with fee when it is missing and
// reports whether it did.
func (r *settingsRepository) EnsureDefaults(ctx context.Context, fee int) (bool, error) {
	settings := models.AppSettings{ID: models.AppSettingsID, MonthlyFee: fee}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&settings)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
