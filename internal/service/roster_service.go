package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/models"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

const rosterCacheKey = "ledger:roster"

type rosterRepository interface {
	All(ctx context.Context) ([]models.Student, error)
	Find(ctx context.Context, nis string) (int, *models.Student, error)
	Append(ctx context.Context, s models.Student) error
	Update(ctx context.Context, rowIndex int, s models.Student) error
}

// CreateStudentRequest holds payload for registering a student.
type CreateStudentRequest struct {
	NIS             string `json:"nis" validate:"required"`
	Name            string `json:"nama" validate:"required"`
	Cohort          string `json:"kelas" validate:"required"`
	GuardianContact string `json:"guardian_contact"`
}

// UpdateStudentRequest holds payload for updating a student.
type UpdateStudentRequest struct {
	Name            string `json:"nama" validate:"required"`
	Cohort          string `json:"kelas" validate:"required"`
	GuardianContact string `json:"guardian_contact"`
}

// RosterService handles the master student list and its cached index.
type RosterService struct {
	repo      rosterRepository
	cache     *CacheService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(repo rosterRepository, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{repo: repo, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// Index returns the NIS-keyed roster index, serving the cached snapshot when
// fresh and rebuilding it from the roster table otherwise.
func (s *RosterService) Index(ctx context.Context) (models.RosterIndex, error) {
	var index models.RosterIndex
	if s.cache.Get(ctx, rosterCacheKey, &index) {
		return index, nil
	}

	students, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	index = make(models.RosterIndex, len(students))
	for _, student := range students {
		index[student.NIS] = student
	}
	s.cache.Set(ctx, rosterCacheKey, index, s.ttl)
	return index, nil
}

// List returns students matching the filter, in stable NIS order.
func (s *RosterService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(index))
	for _, student := range index {
		if filter.Matches(student) {
			students = append(students, student)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].NIS < students[j].NIS })
	return students, nil
}

// Cohorts returns the distinct cohort names, sorted.
func (s *RosterService) Cohorts(ctx context.Context) ([]string, error) {
	index, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, student := range index {
		if student.Cohort != "" {
			seen[student.Cohort] = struct{}{}
		}
	}
	cohorts := make([]string, 0, len(seen))
	for cohort := range seen {
		cohorts = append(cohorts, cohort)
	}
	sort.Strings(cohorts)
	return cohorts, nil
}

// Create registers a new student. Duplicate NIS is rejected.
func (s *RosterService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, _, err := s.repo.Find(ctx, req.NIS); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "NIS "+req.NIS+" is already registered")
	} else if appErrors.FromError(err).Code != appErrors.ErrStudentNotFound.Code {
		return nil, err
	}

	student := models.Student{
		NIS:             req.NIS,
		Name:            req.Name,
		Cohort:          req.Cohort,
		GuardianContact: req.GuardianContact,
	}
	if err := s.repo.Append(ctx, student); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, rosterCacheKey)
	s.logger.Info("student registered", zap.String("nis", student.NIS), zap.String("kelas", student.Cohort))
	return &student, nil
}

// Update rewrites the roster row for the given NIS.
func (s *RosterService) Update(ctx context.Context, nis string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	rowIndex, existing, err := s.repo.Find(ctx, nis)
	if err != nil {
		return nil, err
	}

	student := models.Student{
		NIS:             existing.NIS,
		Name:            req.Name,
		Cohort:          req.Cohort,
		GuardianContact: req.GuardianContact,
	}
	if err := s.repo.Update(ctx, rowIndex, student); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, rosterCacheKey)
	s.logger.Info("student updated", zap.String("nis", nis))
	return &student, nil
}
