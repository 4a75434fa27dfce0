package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/models"
	"github.com/Skotchmaster/college_portal/internal/repo"
	"github.com/Skotchmaster/college_portal/internal/rollno"
)

const admitAttempts = 3

// StudentRecord is the staff view of a student, date of birth included.
type StudentRecord struct {
	*models.Student
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func recordOf(st *models.Student) *StudentRecord {
	r := &StudentRecord{Student: st}
	if !st.DOB.IsZero() {
		r.DateOfBirth = st.DOB.Format("2006-01-02")
	}
	return r
}

// RecordUpdate carries the editable fields of a student. Nil fields are
// left untouched.
type RecordUpdate struct {
	Name        *string
	FatherName  *string
	Gender      *string
	Category    *string
	Phone       *string
	DateOfBirth *string
}

type Admission struct {
	Name        string
	FatherName  string
	Gender      string
	Category    string
	Branch      string
	Email       string
	Phone       string
	DateOfBirth string
}

// BranchStats counts students per study year ("1" to "4") plus "total".
type BranchStats map[string]int

func parseDOB(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date of birth", ErrValidation)
}

// UpdateProfile changes the phone number of the signed-in student.
func (s *StudentService) UpdateProfile(ctx context.Context, p *authz.Principal, phone string) (*models.Student, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone_no required", ErrValidation)
	}
	st, err := s.Repo.UpdateStudentByRoll(ctx, p.RollNo, map[string]any{"phone": phone})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		logging.FromContext(ctx).Error("profile_update_failed", "status", 500, "roll_no", p.RollNo, "error", err)
		return nil, err
	}
	return st, nil
}

func (s *StudentService) Record(ctx context.Context, rollNo string) (*StudentRecord, error) {
	st, err := s.Repo.FindStudentByRoll(ctx, strings.TrimSpace(rollNo))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return recordOf(st), nil
}

func (s *StudentService) UpdateRecord(ctx context.Context, rollNo string, u RecordUpdate) (*StudentRecord, error) {
	l := logging.FromContext(ctx).With("svc", "students.update_record", "roll_no", rollNo)

	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	set("name", u.Name)
	set("father_name", u.FatherName)
	set("gender", u.Gender)
	set("category", u.Category)
	set("phone", u.Phone)
	if u.DateOfBirth != nil {
		t, err := parseDOB(*u.DateOfBirth)
		if err != nil {
			return nil, err
		}
		fields["dob"] = t
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	st, err := s.Repo.UpdateStudentByRoll(ctx, strings.TrimSpace(rollNo), fields)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: student", ErrNotFound)
	}
	if err != nil {
		l.Error("record_update_failed", "status", 500, "error", err)
		return nil, err
	}
	s.index(ctx, *st)
	l.Info("record_updated")
	return recordOf(st), nil
}

// Admit registers a new regular entry student in the current intake and
// assigns the next free roll number of the branch.
func (s *StudentService) Admit(ctx context.Context, in Admission) (*StudentRecord, error) {
	l := logging.FromContext(ctx).With("svc", "students.admit")

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	code, ok := rollno.BranchCode(in.Branch)
	if !ok {
		return nil, fmt.Errorf("%w: unknown branch", ErrValidation)
	}
	var dobAt time.Time
	if strings.TrimSpace(in.DateOfBirth) != "" {
		t, err := parseDOB(in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		dobAt = t
	}
	email := ""
	if strings.TrimSpace(in.Email) != "" {
		e, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}
		email = e
	}

	year := s.now().Year()
	intake, _ := rollno.Parse(rollno.Regular(year, code, 1))
	for attempt := 0; attempt < admitAttempts; attempt++ {
		rolls, err := s.Repo.ListRollNumbers(ctx, rollno.LikePatterns(year, code)[0])
		if err != nil {
			l.Error("admission_failed", "status", 500, "error", err)
			return nil, err
		}
		next := 1
		for _, r := range rolls {
			if info, ok := rollno.Parse(r); ok && info.Serial >= next {
				next = info.Serial + 1
			}
		}
		if next > 99 {
			return nil, fmt.Errorf("%w: intake for %s is full", ErrConflict, intake.Branch)
		}

		st := &models.Student{
			RollNo:     rollno.Regular(year, code, next),
			Name:       name,
			FatherName: strings.TrimSpace(in.FatherName),
			Gender:     strings.TrimSpace(in.Gender),
			Category:   strings.TrimSpace(in.Category),
			Branch:     intake.Branch,
			Email:      email,
			Phone:      strings.TrimSpace(in.Phone),
			DOB:        dobAt,
		}
		err = s.Repo.CreateStudentIfNotExists(ctx, st)
		if errors.Is(err, repo.ErrAlreadyExists) {
			l.Warn("admission_retry", "roll_no", st.RollNo, "attempt", attempt+1)
			continue
		}
		if err != nil {
			l.Error("admission_failed", "status", 500, "error", err)
			return nil, err
		}
		s.index(ctx, *st)
		l.Info("student_admitted", "roll_no", st.RollNo)
		return recordOf(st), nil
	}
	return nil, fmt.Errorf("%w: roll number allocation raced, try again", ErrConflict)
}

// ListByIntake pages through the students of one entry year and branch.
func (s *StudentService) ListByIntake(ctx context.Context, year, branch string, from, size int) (int64, []models.Student, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 2000 || y > 2099 {
		return 0, nil, fmt.Errorf("%w: year and branch are required", ErrValidation)
	}
	code, ok := rollno.BranchCode(branch)
	if !ok {
		return 0, nil, fmt.Errorf("%w: year and branch are required", ErrValidation)
	}
	return s.Repo.ListStudentsByRollPatterns(ctx, rollno.LikePatterns(y, code), from, size)
}

// Stats counts current students by branch and year of study. Every known
// branch is present; roll numbers that do not decode are skipped.
func (s *StudentService) Stats(ctx context.Context) (map[string]BranchStats, error) {
	rolls, err := s.Repo.ListRollNumbers(ctx, "")
	if err != nil {
		logging.FromContext(ctx).Error("student_stats_failed", "status", 500, "error", err)
		return nil, err
	}

	out := make(map[string]BranchStats)
	for _, b := range rollno.Branches() {
		out[b] = BranchStats{"1": 0, "2": 0, "3": 0, "4": 0, "total": 0}
	}
	now := s.now()
	for _, r := range rolls {
		info, ok := rollno.Parse(r)
		if !ok {
			continue
		}
		year := info.StudyYear(now)
		if year < 1 {
			continue
		}
		if year <= 4 {
			out[info.Branch][strconv.Itoa(year)]++
		}
		out[info.Branch]["total"]++
	}
	return out, nil
}

// index refreshes one search document. A failure is logged and the write
// stands.
func (s *StudentService) index(ctx context.Context, st models.Student) {
	if s.Search == nil {
		return
	}
	if _, err := s.Search.IndexStudents(ctx, []models.Student{st}); err != nil {
		logging.FromContext(ctx).Warn("student_index_failed", "roll_no", st.RollNo, "error", err)
	}
}
