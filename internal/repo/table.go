package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storepanel/internal/models"
)

// Table is the data access object for one entity type.
type Table[M models.Entity] struct {
	DB      *gorm.DB
	OrderBy string
	Preload []string
}

func NewTable[M models.Entity](db *gorm.DB, orderBy string, preload ...string) *Table[M] {
	return &Table[M]{DB: db, OrderBy: orderBy, Preload: preload}
}

func (t *Table[M]) read(tx *gorm.DB) *gorm.DB {
	for _, p := range t.Preload {
		tx = tx.Preload(p)
	}
	return tx
}

func (t *Table[M]) List(ctx context.Context) ([]M, error) {
	rows := make([]M, 0)
	q := t.read(t.DB.WithContext(ctx))
	if t.OrderBy != "" {
		q = q.Order(t.OrderBy)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *Table[M]) Get(ctx context.Context, id uuid.UUID) (*M, error) {
	var m M
	if err := t.read(t.DB.WithContext(ctx)).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByIDs keeps the order of ids and silently skips missing rows.
func (t *Table[M]) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]M, error) {
	if len(ids) == 0 {
		return []M{}, nil
	}
	var rows []M
	if err := t.read(t.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]M, len(rows))
	for _, r := range rows {
		byID[r.Key()] = r
	}
	out := make([]M, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *Table[M]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := t.DB.WithContext(ctx).Model(new(M)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Taken reports whether another row already holds value in column.
func (t *Table[M]) Taken(ctx context.Context, column string, value any, except uuid.UUID) (bool, error) {
	var n int64
	q := t.DB.WithContext(ctx).Model(new(M)).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *Table[M]) Create(ctx context.Context, m *M) error {
	return classify(t.DB.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

// Update loads the row under a lock, lets mutate change it and saves it back
// in one transaction. Model hooks re-derive computed columns on save.
func (t *Table[M]) Update(ctx context.Context, id uuid.UUID, mutate func(m *M) error) (*M, error) {
	var m M
	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := t.read(forUpdate(tx)).Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if err := mutate(&m); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&m).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

func (t *Table[M]) Delete(ctx context.Context, id uuid.UUID) error {
	res := t.DB.WithContext(ctx).Where("id = ?", id).Delete(new(M))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// sqlite has no row locks and rejects the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
