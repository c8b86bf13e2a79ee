package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

func (b *BaseQuerier) apply(tx *gorm.DB) *gorm.DB {
	if b == nil {
		return tx
	}
	for _, fn := range b.QueryFn {
		tx = fn(tx)
	}
	return tx
}

type CandidatureQueryFilter struct {
	BaseQuerier
}

func NewCandidatureQueryFilter() *CandidatureQueryFilter {
	return &CandidatureQueryFilter{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (f *CandidatureQueryFilter) ByStatus(statuses ...lifecycle.Status) *CandidatureQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return f
}

func (f *CandidatureQueryFilter) ByPsychologue(id uuid.UUID) *CandidatureQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("assigned_psychologue_id = ?", id)
	})
	return f
}

// ByExamDateBetween keeps candidatures whose exam date is in [from, to).
func (f *CandidatureQueryFilter) ByExamDateBetween(from, to time.Time) *CandidatureQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("exam_date >= ? AND exam_date < ?", from, to)
	})
	return f
}

func (f *CandidatureQueryFilter) ByJobApplications(ids ...uuid.UUID) *CandidatureQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("job_application_id IN ?", ids)
	})
	return f
}

func (f *CandidatureQueryFilter) ByPrevious(id uuid.UUID) *CandidatureQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("previous_candidature_id = ?", id)
	})
	return f
}

type CandidatureQueryOptions struct {
	BaseQuerier
}

func NewCandidatureQueryOptions() *CandidatureQueryOptions {
	return &CandidatureQueryOptions{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

// Limit results
func (o *CandidatureQueryOptions) WithLimit(limit int) *CandidatureQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

// Offset results
func (o *CandidatureQueryOptions) WithOffset(offset int) *CandidatureQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(offset)
	})
	return o
}

func (o *CandidatureQueryOptions) WithSortOrder(sort SortOrder) *CandidatureQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByCreatedTime:
			return tx.Order("created_at DESC").Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at DESC").Order("id")
		case SortByExamDate:
			return tx.Order("exam_date").Order("id")
		default:
			return tx.Order("id")
		}
	})
	return o
}

type SortOrder int

const (
	SortByID SortOrder = iota
	SortByCreatedTime
	SortByUpdatedTime
	SortByExamDate
)

type LogicalTestQueryFilter struct {
	BaseQuerier
}

func NewLogicalTestQueryFilter() *LogicalTestQueryFilter {
	return &LogicalTestQueryFilter{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (f *LogicalTestQueryFilter) ByCode(code model.LogicalTestCode) *LogicalTestQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("code = ?", code)
	})
	return f
}

func (f *LogicalTestQueryFilter) ByTutorial(isTutorial bool) *LogicalTestQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("is_tutorial = ?", isTutorial)
	})
	return f
}

func (f *LogicalTestQueryFilter) ActiveOnly() *LogicalTestQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("is_active = ?", true)
	})
	return f
}

type LanguageQueryFilter struct {
	BaseQuerier
}

func NewLanguageQueryFilter() *LanguageQueryFilter {
	return &LanguageQueryFilter{BaseQuerier{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}}
}

func (f *LanguageQueryFilter) ActiveOnly() *LanguageQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("is_active = ?", true)
	})
	return f
}

func (f *LanguageQueryFilter) ByCodes(codes ...string) *LanguageQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("code IN ?", codes)
	})
	return f
}
