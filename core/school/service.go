package school

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/user"
)

var (
	// errors
	ErrSchoolNotFound  = core.NewNotFoundError("school not found")
	ErrClassNotFound   = core.NewNotFoundError("class not found")
	ErrTeacherNotFound = core.NewNotFoundError("teacher not found")
	ErrStudentNotFound = core.NewNotFoundError("student not found")
	ErrForeignClass    = errors.New("class does not belong to this school")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School, exec ...core.DBExecutor) (School, error)
		GetSchool(ctx context.Context, id string, exec ...core.DBExecutor) (School, error)
		GetSchoolByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (School, error)

		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		ListClasses(ctx context.Context, schoolID string, exec ...core.DBExecutor) ([]Class, error)

		CreateTeacher(ctx context.Context, tchr TeacherProfile, exec ...core.DBExecutor) (TeacherProfile, error)
		GetTeacher(ctx context.Context, id string, exec ...core.DBExecutor) (TeacherProfile, error)
		GetTeacherByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (TeacherProfile, error)
		ListTeachers(ctx context.Context, schoolID string, exec ...core.DBExecutor) ([]TeacherProfile, error)

		CreateStudent(ctx context.Context, std StudentProfile, exec ...core.DBExecutor) (StudentProfile, error)
		GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (StudentProfile, error)
		GetStudentByUser(ctx context.Context, userID string, exec ...core.DBExecutor) (StudentProfile, error)
		ListStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]StudentProfile, error)
	}

	Service interface {
		Register(ctx context.Context, ns NewSchool) (School, error)
		Get(ctx context.Context, id string) (School, error)
		GetByUser(ctx context.Context, userID string) (School, error)
		// ManagedBy returns the school usr administers: its own school for school accounts,
		// or the employing school for teachers.
		ManagedBy(ctx context.Context, usr user.User) (School, error)

		CreateClass(ctx context.Context, schoolID string, nc NewClass) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		ListClasses(ctx context.Context, schoolID string) ([]Class, error)

		EnrollTeacher(ctx context.Context, schoolID string, nt NewTeacher) (TeacherProfile, error)
		GetTeacher(ctx context.Context, id string) (TeacherProfile, error)
		GetTeacherByUser(ctx context.Context, userID string) (TeacherProfile, error)
		ListTeachers(ctx context.Context, schoolID string) ([]TeacherProfile, error)

		EnrollStudent(ctx context.Context, schoolID string, ns NewStudent) (StudentProfile, error)
		GetStudent(ctx context.Context, id string) (StudentProfile, error)
		GetStudentByUser(ctx context.Context, userID string) (StudentProfile, error)
		ListStudents(ctx context.Context, classID string) ([]StudentProfile, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{
		db:      db,
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
	}
}

// Register creates the school account and the School in one transaction.
func (svc *service) Register(ctx context.Context, ns NewSchool) (School, error) {
	var sch School
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		usr, err := svc.usrSvc.Create(ctx, ns.user(), tx)
		if err != nil {
			return err
		}
		sch, err = svc.repo.CreateSchool(ctx, School{
			UserID:    usr.ID,
			Name:      ns.Name,
			Address:   ns.Address,
			Phone:     ns.Phone,
			Email:     ns.Email,
			CreatedAt: time.Now().UTC(),
		}, tx)
		return errors.Wrap(err, "creating school")
	})
	return sch, err
}

func (svc *service) Get(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *service) GetByUser(ctx context.Context, userID string) (School, error) {
	return svc.repo.GetSchoolByUser(ctx, userID)
}

func (svc *service) ManagedBy(ctx context.Context, usr user.User) (School, error) {
	switch usr.Role {
	case user.RoleSchool:
		return svc.repo.GetSchoolByUser(ctx, usr.ID)
	case user.RoleTeacher:
		tchr, err := svc.repo.GetTeacherByUser(ctx, usr.ID)
		if err != nil {
			return School{}, err
		}
		return svc.repo.GetSchool(ctx, tchr.SchoolID)
	}
	return School{}, ErrSchoolNotFound
}

func (svc *service) CreateClass(ctx context.Context, schoolID string, nc NewClass) (Class, error) {
	if _, err := svc.repo.GetSchool(ctx, schoolID); err != nil {
		return Class{}, err
	}
	return svc.repo.CreateClass(ctx, Class{
		SchoolID:  schoolID,
		Name:      nc.Name,
		Section:   nc.Section,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) ListClasses(ctx context.Context, schoolID string) ([]Class, error) {
	return svc.repo.ListClasses(ctx, schoolID)
}

// EnrollTeacher creates the teacher account and profile in one transaction.
func (svc *service) EnrollTeacher(ctx context.Context, schoolID string, nt NewTeacher) (TeacherProfile, error) {
	sch, err := svc.repo.GetSchool(ctx, schoolID)
	if err != nil {
		return TeacherProfile{}, err
	}

	var tchr TeacherProfile
	err = core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		usr, err := svc.usrSvc.Create(ctx, nt.user(), tx)
		if err != nil {
			return err
		}
		tchr, err = svc.repo.CreateTeacher(ctx, TeacherProfile{
			UserID:    usr.ID,
			SchoolID:  sch.ID,
			Name:      nt.Name,
			Phone:     nt.Phone,
			Email:     nt.Email,
			CreatedAt: time.Now().UTC(),
		}, tx)
		return errors.Wrap(err, "creating teacher")
	})
	if err != nil {
		return TeacherProfile{}, err
	}
	svc.sendWelcomeMail(tchr.Name, tchr.Email, sch)
	return tchr, nil
}

func (svc *service) GetTeacher(ctx context.Context, id string) (TeacherProfile, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *service) GetTeacherByUser(ctx context.Context, userID string) (TeacherProfile, error) {
	return svc.repo.GetTeacherByUser(ctx, userID)
}

func (svc *service) ListTeachers(ctx context.Context, schoolID string) ([]TeacherProfile, error) {
	return svc.repo.ListTeachers(ctx, schoolID)
}

// EnrollStudent creates the student account and profile in one transaction. The class must belong to the school.
func (svc *service) EnrollStudent(ctx context.Context, schoolID string, ns NewStudent) (StudentProfile, error) {
	sch, err := svc.repo.GetSchool(ctx, schoolID)
	if err != nil {
		return StudentProfile{}, err
	}
	cls, err := svc.repo.GetClass(ctx, ns.ClassID)
	if err != nil {
		if errors.Cause(err) == ErrClassNotFound {
			return StudentProfile{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: err.Error()})
		}
		return StudentProfile{}, err
	}
	if cls.SchoolID != sch.ID {
		return StudentProfile{}, core.NewValidationError(ErrForeignClass, core.FieldError{Field: "class_id", Error: ErrForeignClass.Error()})
	}

	var std StudentProfile
	err = core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		usr, err := svc.usrSvc.Create(ctx, ns.user(), tx)
		if err != nil {
			return err
		}
		std, err = svc.repo.CreateStudent(ctx, StudentProfile{
			UserID:           usr.ID,
			SchoolID:         sch.ID,
			ClassID:          cls.ID,
			Name:             ns.Name,
			Email:            ns.Email,
			DOB:              null.TimeFromPtr(ns.DOB),
			Address:          ns.Address,
			Phone:            ns.Phone,
			Gender:           ns.Gender,
			GuardianName:     ns.GuardianName,
			EmergencyContact: ns.EmergencyContact,
			CreatedAt:        time.Now().UTC(),
		}, tx)
		return errors.Wrap(err, "creating student")
	})
	if err != nil {
		return StudentProfile{}, err
	}
	svc.sendWelcomeMail(std.Name, std.Email, sch)
	return std, nil
}

func (svc *service) GetStudent(ctx context.Context, id string) (StudentProfile, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) GetStudentByUser(ctx context.Context, userID string) (StudentProfile, error) {
	return svc.repo.GetStudentByUser(ctx, userID)
}

func (svc *service) ListStudents(ctx context.Context, classID string) ([]StudentProfile, error) {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.ListStudents(ctx, classID)
}

func (svc *service) sendWelcomeMail(name, email string, sch School) {
	if email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: email}},
		Subject:      "Welcome to " + sch.Name,
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":       name,
			"Email":      email,
			"SchoolName": sch.Name,
		},
	})
}
