package mapper

import (
	"time"

	"gorm.io/gorm"
)

func deletedAtPtr(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func toDeletedAt(at *time.Time, isDeleted bool) gorm.DeletedAt {
	switch {
	case at != nil:
		return gorm.DeletedAt{Time: *at, Valid: true}
	case isDeleted:
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	default:
		return gorm.DeletedAt{}
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
