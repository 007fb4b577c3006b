package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/repository"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

// Strategy selects how qualified, available candidates are ranked.
type Strategy string

const (
	// StrategyLeastLoaded picks the candidate with the fewest confirmed
	// ad-hoc classes over the trailing thirty days.
	StrategyLeastLoaded Strategy = "least_loaded"
	// StrategyPriority prefers fulltime staff, breaking ties the
	// least-loaded way.
	StrategyPriority Strategy = "priority"
)

// ParseStrategy normalises raw input, defaulting to least loaded.
func ParseStrategy(raw string) (Strategy, bool) {
	switch Strategy(raw) {
	case "":
		return StrategyLeastLoaded, true
	case StrategyLeastLoaded, StrategyPriority:
		return Strategy(raw), true
	}
	return "", false
}

type allocationTeacherRepo interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type allocationLevelRepo interface {
	ListQualifiedTeacherIDs(ctx context.Context, subjectLevelID string) ([]string, error)
	ListQualifiedTeacherIDsBySubject(ctx context.Context, subjectID string) ([]string, error)
}

type allocationClassRepo interface {
	FindByID(ctx context.Context, id string) (*models.AdHocClass, error)
	AssignTeacher(ctx context.Context, classID string, version int, teacherID string, history []string, status models.ClassStatus) error
	CountConfirmedByTeacher(ctx context.Context, teacherID string, from, to time.Time) (int, error)
}

type windowChecker interface {
	IsWindowFree(ctx context.Context, teacherID string, date time.Time, startTime, endTime, excludeClassID string) (bool, error)
}

type hoursReader interface {
	TotalHours(ctx context.Context, teacherID string, from, to time.Time) (float64, error)
}

type assignmentNotifier interface {
	ClassAssigned(teacher *models.Teacher, class *models.AdHocClass)
}

// candidate carries the load figures a strategy ranks on.
type candidate struct {
	teacher       models.Teacher
	recentClasses int
	totalHours    float64
	overCapacity  bool
}

// AllocationService finds and commits teachers for ad-hoc classes. Candidates
// pass qualification, active status, exclusion and availability gates before
// ranking; capacity is a soft gate that only yields when nobody is under it.
type AllocationService struct {
	teachers allocationTeacherRepo
	levels   allocationLevelRepo
	classes  allocationClassRepo
	windows  windowChecker
	hours    hoursReader
	notifier assignmentNotifier
	logger   *zap.Logger
}

// NewAllocationService constructs an AllocationService. notifier may be nil.
func NewAllocationService(teachers allocationTeacherRepo, levels allocationLevelRepo, classes allocationClassRepo, windows windowChecker, hours hoursReader, notifier assignmentNotifier, logger *zap.Logger) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{teachers: teachers, levels: levels, classes: classes, windows: windows, hours: hours, notifier: notifier, logger: logger}
}

// qualifiedIDs resolves which teachers may teach the class. Level-based kinds
// match on the exact subject level; test classes match any level of the
// subject.
func (s *AllocationService) qualifiedIDs(ctx context.Context, class *models.AdHocClass) (map[string]bool, error) {
	var ids []string
	var err error
	switch {
	case class.SubjectLevelID != nil && *class.SubjectLevelID != "":
		ids, err = s.levels.ListQualifiedTeacherIDs(ctx, *class.SubjectLevelID)
	case class.SubjectID != nil && *class.SubjectID != "":
		ids, err = s.levels.ListQualifiedTeacherIDsBySubject(ctx, *class.SubjectID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "class has no subject reference")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualifications")
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// FindSuitableTeacher runs the filter pipeline and ranking for a class and
// returns the winning teacher without committing anything.
func (s *AllocationService) FindSuitableTeacher(ctx context.Context, class *models.AdHocClass, strategy Strategy) (*models.Teacher, error) {
	candidates, err := s.rankedCandidates(ctx, class, strategy)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSuitableTeacher, "no suitable teacher for "+class.Kind.Label())
	}
	teacher := candidates[0].teacher
	return &teacher, nil
}

func (s *AllocationService) rankedCandidates(ctx context.Context, class *models.AdHocClass, strategy Strategy) ([]candidate, error) {
	qualified, err := s.qualifiedIDs(ctx, class)
	if err != nil {
		return nil, err
	}

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	day := truncateDay(class.ScheduledDate)
	monthStart := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	trailingStart := day.AddDate(0, 0, -30)

	var candidates []candidate
	for _, teacher := range teachers {
		if !qualified[teacher.ID] {
			continue
		}
		if class.EverAssigned(teacher.ID) {
			continue
		}
		free, err := s.windows.IsWindowFree(ctx, teacher.ID, day, class.StartTime, class.EndTime, class.ID)
		if err != nil {
			return nil, err
		}
		if !free {
			continue
		}

		cand := candidate{teacher: teacher}
		cand.recentClasses, err = s.classes.CountConfirmedByTeacher(ctx, teacher.ID, trailingStart, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count recent classes")
		}
		cand.totalHours, err = s.hours.TotalHours(ctx, teacher.ID, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}
		if class.Kind == models.KindOffset && teacher.MaxOffsetClasses > 0 {
			monthCount, err := s.classes.CountConfirmedByTeacher(ctx, teacher.ID, monthStart, monthEnd)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count monthly classes")
			}
			cand.overCapacity = monthCount >= teacher.MaxOffsetClasses
		}
		candidates = append(candidates, cand)
	}

	underCapacity := candidates[:0:0]
	for _, cand := range candidates {
		if !cand.overCapacity {
			underCapacity = append(underCapacity, cand)
		}
	}
	if len(underCapacity) > 0 {
		candidates = underCapacity
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessCandidate(candidates[i], candidates[j], strategy)
	})
	return candidates, nil
}

// lessCandidate orders candidates best first. Both strategies fall back to
// recent confirmed classes, then this month's total hours, then teacher id so
// ranking stays deterministic.
func lessCandidate(a, b candidate, strategy Strategy) bool {
	if strategy == StrategyPriority && a.teacher.EmploymentRole != b.teacher.EmploymentRole {
		return a.teacher.EmploymentRole == models.EmploymentFulltime
	}
	if a.recentClasses != b.recentClasses {
		return a.recentClasses < b.recentClasses
	}
	if a.totalHours != b.totalHours {
		return a.totalHours < b.totalHours
	}
	return a.teacher.ID < b.teacher.ID
}

// AssignClass commits a teacher to a pending class. When teacherID is empty
// the strategy picks one; otherwise the named teacher is checked through the
// same gates before committing. The optimistic version guard ensures at most
// one concurrent assignment wins.
func (s *AllocationService) AssignClass(ctx context.Context, classID, teacherID string, strategy Strategy) (*models.AdHocClass, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalStatus, "class is "+string(class.Status))
	}
	if !class.Status.CanTransition(models.StatusAssigned) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class is not awaiting assignment")
	}

	var teacher *models.Teacher
	if teacherID == "" {
		teacher, err = s.FindSuitableTeacher(ctx, class, strategy)
		if err != nil {
			return nil, err
		}
	} else {
		teacher, err = s.vetManualPick(ctx, class, teacherID)
		if err != nil {
			return nil, err
		}
	}

	history := append([]string{}, class.AssignedHistory...)
	history = append(history, teacher.ID)
	if err := s.classes.AssignTeacher(ctx, class.ID, class.Version, teacher.ID, history, models.StatusAssigned); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class was assigned concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}

	class.AssignedTeacherID = &teacher.ID
	class.AssignedHistory = history
	class.Status = models.StatusAssigned
	class.Version++

	s.logger.Info("class assigned",
		zap.String("class_id", class.ID),
		zap.String("teacher_id", teacher.ID),
		zap.String("strategy", string(strategy)))
	if s.notifier != nil {
		s.notifier.ClassAssigned(teacher, class)
	}
	return class, nil
}

// ReallocateClass replaces the current assignee with a fresh pick that has
// never held the class before. The class stays untouched when no replacement
// exists.
func (s *AllocationService) ReallocateClass(ctx context.Context, classID string, strategy Strategy) (*models.AdHocClass, error) {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalStatus, "class is "+string(class.Status))
	}
	if class.Status != models.StatusAssigned || class.AssignedTeacherID == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class has no teacher to replace")
	}

	teacher, err := s.FindSuitableTeacher(ctx, class, strategy)
	if err != nil {
		return nil, err
	}

	history := append([]string{}, class.AssignedHistory...)
	history = append(history, teacher.ID)
	if err := s.classes.AssignTeacher(ctx, class.ID, class.Version, teacher.ID, history, models.StatusAssigned); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign teacher")
	}

	previous := *class.AssignedTeacherID
	class.AssignedTeacherID = &teacher.ID
	class.AssignedHistory = history
	class.Status = models.StatusAssigned
	class.Version++

	s.logger.Info("class reallocated",
		zap.String("class_id", class.ID),
		zap.String("previous_teacher_id", previous),
		zap.String("teacher_id", teacher.ID))
	if s.notifier != nil {
		s.notifier.ClassAssigned(teacher, class)
	}
	return class, nil
}

func (s *AllocationService) loadClass(ctx context.Context, classID string) (*models.AdHocClass, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// vetManualPick runs a named teacher through the same gates the automatic
// pipeline applies.
func (s *AllocationService) vetManualPick(ctx context.Context, class *models.AdHocClass, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Active() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not active")
	}
	qualified, err := s.qualifiedIDs(ctx, class)
	if err != nil {
		return nil, err
	}
	if !qualified[teacher.ID] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not qualified for this class")
	}
	free, err := s.windows.IsWindowFree(ctx, teacher.ID, truncateDay(class.ScheduledDate), class.StartTime, class.EndTime, class.ID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is busy in that window")
	}
	return teacher, nil
}
