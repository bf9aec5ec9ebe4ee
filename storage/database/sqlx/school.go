package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/storage/database"
)

const (
	schoolColumns  = "id, user_id, name, address, phone, email, created_at"
	classColumns   = "id, school_id, name, section, created_at"
	teacherColumns = "id, user_id, school_id, name, phone, email, created_at"
	studentColumns = "id, user_id, school_id, class_id, name, email, dob, address, phone, gender, guardian_name, emergency_contact, created_at"
)

var errProfileExists = core.NewConflictError("this user already has a profile")

type schoolRepository struct {
	repository
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) *schoolRepository {
	return &schoolRepository{repository{exec: exec}}
}

type (
	schoolRow struct {
		ID        string    `db:"id"`
		UserID    string    `db:"user_id"`
		Name      string    `db:"name"`
		Address   string    `db:"address"`
		Phone     string    `db:"phone"`
		Email     string    `db:"email"`
		CreatedAt time.Time `db:"created_at"`
	}

	classRow struct {
		ID        string    `db:"id"`
		SchoolID  string    `db:"school_id"`
		Name      string    `db:"name"`
		Section   string    `db:"section"`
		CreatedAt time.Time `db:"created_at"`
	}

	teacherRow struct {
		ID        string    `db:"id"`
		UserID    string    `db:"user_id"`
		SchoolID  string    `db:"school_id"`
		Name      string    `db:"name"`
		Phone     string    `db:"phone"`
		Email     string    `db:"email"`
		CreatedAt time.Time `db:"created_at"`
	}

	studentRow struct {
		ID               string    `db:"id"`
		UserID           string    `db:"user_id"`
		SchoolID         string    `db:"school_id"`
		ClassID          string    `db:"class_id"`
		Name             string    `db:"name"`
		Email            string    `db:"email"`
		DOB              null.Time `db:"dob"`
		Address          string    `db:"address"`
		Phone            string    `db:"phone"`
		Gender           string    `db:"gender"`
		GuardianName     string    `db:"guardian_name"`
		EmergencyContact string    `db:"emergency_contact"`
		CreatedAt        time.Time `db:"created_at"`
	}
)

func (row schoolRow) toSchool() school.School {
	return school.School{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Address:   row.Address,
		Phone:     row.Phone,
		Email:     row.Email,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row classRow) toClass() school.Class {
	return school.Class{
		ID:        row.ID,
		SchoolID:  row.SchoolID,
		Name:      row.Name,
		Section:   row.Section,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row teacherRow) toTeacher() school.TeacherProfile {
	return school.TeacherProfile{
		ID:        row.ID,
		UserID:    row.UserID,
		SchoolID:  row.SchoolID,
		Name:      row.Name,
		Phone:     row.Phone,
		Email:     row.Email,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row studentRow) toStudent() school.StudentProfile {
	return school.StudentProfile{
		ID:               row.ID,
		UserID:           row.UserID,
		SchoolID:         row.SchoolID,
		ClassID:          row.ClassID,
		Name:             row.Name,
		Email:            row.Email,
		DOB:              row.DOB,
		Address:          row.Address,
		Phone:            row.Phone,
		Gender:           row.Gender,
		GuardianName:     row.GuardianName,
		EmergencyContact: row.EmergencyContact,
		CreatedAt:        row.CreatedAt.UTC(),
	}
}

// Schools

func (repo schoolRepository) CreateSchool(ctx context.Context, sch school.School, exec ...core.DBExecutor) (school.School, error) {
	if sch.ID == "" {
		sch.ID = newID()
	}
	if sch.CreatedAt.IsZero() {
		sch.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO schools ("+schoolColumns+") VALUES (:id, :user_id, :name, :address, :phone, :email, :created_at)",
		schoolRow{sch.ID, sch.UserID, sch.Name, sch.Address, sch.Phone, sch.Email, sch.CreatedAt.UTC()},
	)
	if err != nil {
		return school.School{}, database.TrapUnique(err, errProfileExists, "inserting school")
	}
	return repo.GetSchool(ctx, sch.ID, exec...)
}

func (repo schoolRepository) getSchool(ctx context.Context, exec []core.DBExecutor, where string, args ...interface{}) (school.School, error) {
	var row schoolRow
	if err := repo.get(ctx, exec, &row, "SELECT "+schoolColumns+" FROM schools WHERE "+where, args...); err != nil {
		return school.School{}, database.TrapNoRows(err, school.ErrSchoolNotFound, "selecting school")
	}
	return row.toSchool(), nil
}

func (repo schoolRepository) GetSchool(ctx context.Context, id string, exec ...core.DBExecutor) (school.School, error) {
	return repo.getSchool(ctx, exec, "id = ?", id)
}

func (repo schoolRepository) GetSchoolByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (school.School, error) {
	return repo.getSchool(ctx, exec, "user_id = ?", userID)
}

// Classes

func (repo schoolRepository) CreateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	if cls.ID == "" {
		cls.ID = newID()
	}
	if cls.CreatedAt.IsZero() {
		cls.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO classes ("+classColumns+") VALUES (:id, :school_id, :name, :section, :created_at)",
		classRow{cls.ID, cls.SchoolID, cls.Name, cls.Section, cls.CreatedAt.UTC()},
	)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return repo.GetClass(ctx, cls.ID, exec...)
}

func (repo schoolRepository) GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (school.Class, error) {
	var row classRow
	if err := repo.get(ctx, exec, &row, "SELECT "+classColumns+" FROM classes WHERE id = ?", id); err != nil {
		return school.Class{}, database.TrapNoRows(err, school.ErrClassNotFound, "selecting class")
	}
	return row.toClass(), nil
}

func (repo schoolRepository) ListClasses(ctx context.Context, schoolID string, exec ...core.DBExecutor) ([]school.Class, error) {
	var rows []classRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+classColumns+" FROM classes WHERE school_id = ? ORDER BY name, section", schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	return classes, nil
}

// Teachers

func (repo schoolRepository) CreateTeacher(ctx context.Context, tchr school.TeacherProfile, exec ...core.DBExecutor) (school.TeacherProfile, error) {
	if tchr.ID == "" {
		tchr.ID = newID()
	}
	if tchr.CreatedAt.IsZero() {
		tchr.CreatedAt = now()
	}
	err := repo.namedExec(ctx, exec,
		"INSERT INTO teacher_profiles ("+teacherColumns+") VALUES (:id, :user_id, :school_id, :name, :phone, :email, :created_at)",
		teacherRow{tchr.ID, tchr.UserID, tchr.SchoolID, tchr.Name, tchr.Phone, tchr.Email, tchr.CreatedAt.UTC()},
	)
	if err != nil {
		return school.TeacherProfile{}, database.TrapUnique(err, errProfileExists, "inserting teacher")
	}
	return repo.GetTeacher(ctx, tchr.ID, exec...)
}

func (repo schoolRepository) getTeacher(ctx context.Context, exec []core.DBExecutor, where string, args ...interface{}) (school.TeacherProfile, error) {
	var row teacherRow
	if err := repo.get(ctx, exec, &row, "SELECT "+teacherColumns+" FROM teacher_profiles WHERE "+where, args...); err != nil {
		return school.TeacherProfile{}, database.TrapNoRows(err, school.ErrTeacherNotFound, "selecting teacher")
	}
	return row.toTeacher(), nil
}

func (repo schoolRepository) GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (school.TeacherProfile, error) {
	return repo.getTeacher(ctx, exec, "id = ?", id)
}

func (repo schoolRepository) GetTeacherByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (school.TeacherProfile, error) {
	return repo.getTeacher(ctx, exec, "user_id = ?", userID)
}

func (repo schoolRepository) ListTeachers(ctx context.Context, schoolID string, exec ...core.DBExecutor) ([]school.TeacherProfile, error) {
	var rows []teacherRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+teacherColumns+" FROM teacher_profiles WHERE school_id = ? ORDER BY name", schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	teachers := make([]school.TeacherProfile, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.toTeacher())
	}
	return teachers, nil
}

// Students

func (repo schoolRepository) CreateStudent(ctx context.Context, std school.StudentProfile, exec ...core.DBExecutor) (school.StudentProfile, error) {
	if std.ID == "" {
		std.ID = newID()
	}
	if std.CreatedAt.IsZero() {
		std.CreatedAt = now()
	}
	row := studentRow{
		ID:               std.ID,
		UserID:           std.UserID,
		SchoolID:         std.SchoolID,
		ClassID:          std.ClassID,
		Name:             std.Name,
		Email:            std.Email,
		DOB:              std.DOB,
		Address:          std.Address,
		Phone:            std.Phone,
		Gender:           std.Gender,
		GuardianName:     std.GuardianName,
		EmergencyContact: std.EmergencyContact,
		CreatedAt:        std.CreatedAt.UTC(),
	}
	err := repo.namedExec(ctx, exec, `
		INSERT INTO student_profiles (`+studentColumns+`)
		VALUES (:id, :user_id, :school_id, :class_id, :name, :email, :dob, :address, :phone, :gender, :guardian_name, :emergency_contact, :created_at)`,
		row,
	)
	if err != nil {
		return school.StudentProfile{}, database.TrapUnique(err, errProfileExists, "inserting student")
	}
	return repo.GetStudent(ctx, std.ID, exec...)
}

func (repo schoolRepository) getStudent(ctx context.Context, exec []core.DBExecutor, where string, args ...interface{}) (school.StudentProfile, error) {
	var row studentRow
	if err := repo.get(ctx, exec, &row, "SELECT "+studentColumns+" FROM student_profiles WHERE "+where, args...); err != nil {
		return school.StudentProfile{}, database.TrapNoRows(err, school.ErrStudentNotFound, "selecting student")
	}
	return row.toStudent(), nil
}

func (repo schoolRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (school.StudentProfile, error) {
	return repo.getStudent(ctx, exec, "id = ?", id)
}

func (repo schoolRepository) GetStudentByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (school.StudentProfile, error) {
	return repo.getStudent(ctx, exec, "user_id = ?", userID)
}

func (repo schoolRepository) ListStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]school.StudentProfile, error) {
	var rows []studentRow
	err := repo.selectAll(ctx, exec, &rows,
		"SELECT "+studentColumns+" FROM student_profiles WHERE class_id = ? ORDER BY name", classID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]school.StudentProfile, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}
