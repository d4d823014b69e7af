package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStudentRepository implements StudentRepository using GORM
type GormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository creates a new GormStudentRepository
func NewGormStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByIDForTenant finds a student by ID within a school
func (r *GormStudentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Student, error) {
	var model models.StudentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindActive lists active students, optionally limited to one class group
func (r *GormStudentRepository) FindActive(ctx context.Context, tenantID uuid.UUID, classGroupID *uuid.UUID) ([]directory.Student, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND active = ?", tenantID, true)
	if classGroupID != nil {
		query = query.Where("class_group_id = ?", *classGroupID)
	}
	var rows []models.StudentModel
	if err := query.Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	students := make([]directory.Student, len(rows))
	for i := range rows {
		students[i] = *rows[i].ToDomain()
	}
	return students, nil
}

// Save creates or replaces a student record
func (r *GormStudentRepository) Save(ctx context.Context, s *directory.Student) error {
	return r.db.WithContext(ctx).Save(models.StudentModelFromDomain(s)).Error
}

// GormTeacherRepository implements TeacherRepository using GORM
type GormTeacherRepository struct {
	db *gorm.DB
}

// NewGormTeacherRepository creates a new GormTeacherRepository
func NewGormTeacherRepository(db *gorm.DB) *GormTeacherRepository {
	return &GormTeacherRepository{db: db}
}

// FindByIDForTenant finds a teacher by ID within a school
func (r *GormTeacherRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Teacher, error) {
	var model models.TeacherModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindActive lists a school's active teachers
func (r *GormTeacherRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]directory.Teacher, error) {
	var rows []models.TeacherModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("name ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	teachers := make([]directory.Teacher, len(rows))
	for i := range rows {
		teachers[i] = *rows[i].ToDomain()
	}
	return teachers, nil
}

// FindNames maps teacher ids to names
func (r *GormTeacherRepository) FindNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.TeacherModel
	if err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// Save creates or replaces a teacher record
func (r *GormTeacherRepository) Save(ctx context.Context, t *directory.Teacher) error {
	return r.db.WithContext(ctx).Save(models.TeacherModelFromDomain(t)).Error
}

// GormAttendanceRepository implements AttendanceRepository using GORM
type GormAttendanceRepository struct {
	db *gorm.DB
}

// NewGormAttendanceRepository creates a new GormAttendanceRepository
func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{db: db}
}

// Find returns the teacher's summary for the period
func (r *GormAttendanceRepository) Find(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*directory.TeacherAttendance, error) {
	var model models.TeacherAttendanceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND teacher_id = ? AND year = ? AND month = ?", tenantID, teacherID, period.Year, period.Month).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save upserts the summary for its teacher and period
func (r *GormAttendanceRepository) Save(ctx context.Context, a *directory.TeacherAttendance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "teacher_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"working_days", "absent_days"}),
		}).
		Create(models.TeacherAttendanceModelFromDomain(a)).Error
}

// GormSchoolProvider lists schools from the directory tables
type GormSchoolProvider struct {
	db *gorm.DB
}

// NewGormSchoolProvider creates a new GormSchoolProvider
func NewGormSchoolProvider(db *gorm.DB) *GormSchoolProvider {
	return &GormSchoolProvider{db: db}
}

// ListSchoolIDs returns every school with a student or teacher
func (p *GormSchoolProvider) ListSchoolIDs(ctx context.Context) ([]uuid.UUID, error) {
	var raw []string
	if err := p.db.WithContext(ctx).
		Raw("SELECT tenant_id FROM students UNION SELECT tenant_id FROM teachers ORDER BY tenant_id").
		Scan(&raw).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var (
	_ directory.StudentRepository    = (*GormStudentRepository)(nil)
	_ directory.TeacherRepository    = (*GormTeacherRepository)(nil)
	_ directory.AttendanceRepository = (*GormAttendanceRepository)(nil)
	_ directory.SchoolProvider       = (*GormSchoolProvider)(nil)
)
