package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/unishare-api/internal/models"
)

// CounterResult describes the outcome of a denormalised counter update.
type CounterResult struct {
	Counters models.Counters
	// Clamped lists the columns that would have gone negative and were held at zero.
	Clamped []string
	// Missing is set when the target row no longer exists.
	Missing bool
}

// clampedAdd builds a server-side "column + delta" that never drops below zero.
// column must come from a whitelist (models.ReactionKind.Column or statColumns).
func clampedAdd(column string, delta int) clause.Expr {
	return gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
}

// applyCounterDelta adjusts the like/dislike/report counters of target in a single UPDATE.
func applyCounterDelta(tx *gorm.DB, target models.TargetRef, delta models.CounterDelta) (CounterResult, error) {
	var result CounterResult

	updates := make(map[string]interface{}, len(delta))
	for kind, value := range delta {
		if value == 0 {
			continue
		}
		column := kind.Column()
		if column == "" {
			return CounterResult{}, fmt.Errorf("unknown reaction kind %q", kind)
		}
		if value < 0 {
			var below int64
			if err := tx.Table(target.Table()).
				Where("id = ? AND "+column+" + ? < 0", target.ID, value).
				Count(&below).Error; err != nil {
				return CounterResult{}, err
			}
			if below > 0 {
				result.Clamped = append(result.Clamped, column)
			}
		}
		updates[column] = clampedAdd(column, value)
	}

	if len(updates) > 0 {
		res := tx.Table(target.Table()).Where("id = ?", target.ID).UpdateColumns(updates)
		if res.Error != nil {
			return CounterResult{}, res.Error
		}
		if res.RowsAffected == 0 {
			result.Missing = true
			return result, nil
		}
	}

	res := tx.Table(target.Table()).
		Select("likes, dislikes, reports").
		Where("id = ?", target.ID).
		Limit(1).
		Scan(&result.Counters)
	if res.Error != nil {
		return CounterResult{}, res.Error
	}
	if res.RowsAffected == 0 {
		result.Missing = true
	}

	return result, nil
}

// deactivateReportedNote flips an active note to inactive once its reports reach threshold.
// It reports true only for the call that performed the transition.
func deactivateReportedNote(tx *gorm.DB, noteID uint, threshold int) (bool, error) {
	res := tx.Model(&models.Note{}).
		Where("id = ? AND is_active = ? AND reports >= ?", noteID, true, threshold).
		UpdateColumn("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
