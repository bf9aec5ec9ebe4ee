package curriculum

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/school"
)

var (
	// errors
	ErrSubjectNotFound = core.NewNotFoundError("subject not found")
	ErrChapterNotFound = core.NewNotFoundError("chapter not found")
	ErrTopicNotFound   = core.NewNotFoundError("topic not found")
	ErrContentNotFound = core.NewNotFoundError("content not found")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		GetSubject(ctx context.Context, id string, exec ...core.DBExecutor) (Subject, error)
		ListSubjects(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Subject, error)
		SetSubjectTeacher(ctx context.Context, id string, teacherID null.String, exec ...core.DBExecutor) (Subject, error)

		CreateChapter(ctx context.Context, chap Chapter, exec ...core.DBExecutor) (Chapter, error)
		GetChapter(ctx context.Context, id string, exec ...core.DBExecutor) (Chapter, error)
		ListChapters(ctx context.Context, subjectID string, exec ...core.DBExecutor) ([]Chapter, error)

		CreateTopic(ctx context.Context, tpc Topic, exec ...core.DBExecutor) (Topic, error)
		GetTopic(ctx context.Context, id string, exec ...core.DBExecutor) (Topic, error)
		ListTopics(ctx context.Context, chapterID string, exec ...core.DBExecutor) ([]Topic, error)
		ListSubjectTopics(ctx context.Context, subjectID string, exec ...core.DBExecutor) ([]Topic, error)
		SetTopicCompleted(ctx context.Context, id string, completed bool, exec ...core.DBExecutor) (Topic, error)
		DeleteTopic(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateContent(ctx context.Context, cnt Content, exec ...core.DBExecutor) (Content, error)
		GetContent(ctx context.Context, id string, exec ...core.DBExecutor) (Content, error)
		ListContents(ctx context.Context, topicID string, exec ...core.DBExecutor) ([]Content, error)
		SetContentCompleted(ctx context.Context, id string, completed bool, exec ...core.DBExecutor) (Content, error)
		CountContents(ctx context.Context, topicID string, exec ...core.DBExecutor) (ContentCount, error)
	}

	Service interface {
		CreateSubject(ctx context.Context, classID string, ns NewSubject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		ListSubjects(ctx context.Context, classID string) ([]Subject, error)
		AssignTeacher(ctx context.Context, subjectID string, teacherID *string) (Subject, error)

		CreateChapter(ctx context.Context, subjectID string, nc NewChapter) (Chapter, error)
		GetChapter(ctx context.Context, id string) (Chapter, error)
		ListChapters(ctx context.Context, subjectID string) ([]Chapter, error)

		CreateTopic(ctx context.Context, chapterID string, nt NewTopic) (Topic, error)
		GetTopic(ctx context.Context, id string) (Topic, error)
		ListTopics(ctx context.Context, chapterID string) ([]Topic, error)
		SetTopicCompleted(ctx context.Context, id string, completed bool) (Topic, error)
		DeleteTopic(ctx context.Context, id string) error

		CreateContent(ctx context.Context, topicID string, nc NewContent) (Content, error)
		GetContent(ctx context.Context, id string) (Content, error)
		ListContents(ctx context.Context, topicID string) ([]Content, error)
		SetContentCompleted(ctx context.Context, id string, completed bool) (Content, error)

		// SchoolOfClass and its siblings return the id of the school owning a curriculum entity.
		SchoolOfClass(ctx context.Context, classID string) (string, error)
		SchoolOfSubject(ctx context.Context, subjectID string) (string, error)
		SchoolOfChapter(ctx context.Context, chapterID string) (string, error)
		SchoolOfTopic(ctx context.Context, topicID string) (string, error)
	}

	service struct {
		repo    Repository
		schRepo school.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schRepo school.Repository) Service {
	return &service{repo: repo, schRepo: schRepo}
}

func (svc *service) CreateSubject(ctx context.Context, classID string, ns NewSubject) (Subject, error) {
	cls, err := svc.schRepo.GetClass(ctx, classID)
	if err != nil {
		return Subject{}, err
	}
	sub := Subject{
		ClassID:     cls.ID,
		Name:        ns.Name,
		Description: ns.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if ns.TeacherID != nil {
		if err = svc.checkTeacher(ctx, *ns.TeacherID, cls.SchoolID); err != nil {
			return Subject{}, err
		}
		sub.TeacherID = null.StringFrom(*ns.TeacherID)
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *service) checkTeacher(ctx context.Context, teacherID, schoolID string) error {
	tchr, err := svc.schRepo.GetTeacher(ctx, teacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: err.Error()})
		}
		return err
	}
	if tchr.SchoolID != schoolID {
		return core.NewValidationError(school.ErrTeacherNotFound,
			core.FieldError{Field: "teacher_id", Error: school.ErrTeacherNotFound.Error()})
	}
	return nil
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) ListSubjects(ctx context.Context, classID string) ([]Subject, error) {
	if _, err := svc.schRepo.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.ListSubjects(ctx, classID)
}

// AssignTeacher sets the subject's teacher; a nil teacherID unassigns it.
func (svc *service) AssignTeacher(ctx context.Context, subjectID string, teacherID *string) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return Subject{}, err
	}
	if teacherID == nil {
		return svc.repo.SetSubjectTeacher(ctx, sub.ID, null.String{})
	}
	schoolID, err := svc.SchoolOfClass(ctx, sub.ClassID)
	if err != nil {
		return Subject{}, err
	}
	if err = svc.checkTeacher(ctx, *teacherID, schoolID); err != nil {
		return Subject{}, err
	}
	return svc.repo.SetSubjectTeacher(ctx, sub.ID, null.StringFrom(*teacherID))
}

func (svc *service) CreateChapter(ctx context.Context, subjectID string, nc NewChapter) (Chapter, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return Chapter{}, err
	}
	return svc.repo.CreateChapter(ctx, Chapter{
		SubjectID:   subjectID,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *service) GetChapter(ctx context.Context, id string) (Chapter, error) {
	return svc.repo.GetChapter(ctx, id)
}

func (svc *service) ListChapters(ctx context.Context, subjectID string) ([]Chapter, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return svc.repo.ListChapters(ctx, subjectID)
}

func (svc *service) CreateTopic(ctx context.Context, chapterID string, nt NewTopic) (Topic, error) {
	if _, err := svc.repo.GetChapter(ctx, chapterID); err != nil {
		return Topic{}, err
	}
	return svc.repo.CreateTopic(ctx, Topic{
		ChapterID:   chapterID,
		Name:        nt.Name,
		Description: nt.Description,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *service) GetTopic(ctx context.Context, id string) (Topic, error) {
	return svc.repo.GetTopic(ctx, id)
}

func (svc *service) ListTopics(ctx context.Context, chapterID string) ([]Topic, error) {
	if _, err := svc.repo.GetChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	return svc.repo.ListTopics(ctx, chapterID)
}

// SetTopicCompleted flips the topic's shared completion flag. Student progress is left untouched.
func (svc *service) SetTopicCompleted(ctx context.Context, id string, completed bool) (Topic, error) {
	return svc.repo.SetTopicCompleted(ctx, id, completed)
}

// DeleteTopic deletes the topic with its contents, quizzes and progress records.
func (svc *service) DeleteTopic(ctx context.Context, id string) error {
	return svc.repo.DeleteTopic(ctx, id)
}

func (svc *service) CreateContent(ctx context.Context, topicID string, nc NewContent) (Content, error) {
	if _, err := svc.repo.GetTopic(ctx, topicID); err != nil {
		return Content{}, err
	}
	isActive := true
	if nc.IsActive != nil {
		isActive = *nc.IsActive
	}
	return svc.repo.CreateContent(ctx, Content{
		TopicID:     topicID,
		Link:        nc.Link,
		Description: nc.Description,
		Order:       nc.Order,
		IsActive:    isActive,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *service) GetContent(ctx context.Context, id string) (Content, error) {
	return svc.repo.GetContent(ctx, id)
}

func (svc *service) ListContents(ctx context.Context, topicID string) ([]Content, error) {
	if _, err := svc.repo.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return svc.repo.ListContents(ctx, topicID)
}

// SetContentCompleted flips the content's shared completion flag without recomputing anyone's progress.
func (svc *service) SetContentCompleted(ctx context.Context, id string, completed bool) (Content, error) {
	return svc.repo.SetContentCompleted(ctx, id, completed)
}

func (svc *service) SchoolOfClass(ctx context.Context, classID string) (string, error) {
	cls, err := svc.schRepo.GetClass(ctx, classID)
	if err != nil {
		return "", err
	}
	return cls.SchoolID, nil
}

func (svc *service) SchoolOfSubject(ctx context.Context, subjectID string) (string, error) {
	sub, err := svc.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return "", err
	}
	return svc.SchoolOfClass(ctx, sub.ClassID)
}

func (svc *service) SchoolOfChapter(ctx context.Context, chapterID string) (string, error) {
	chap, err := svc.repo.GetChapter(ctx, chapterID)
	if err != nil {
		return "", err
	}
	return svc.SchoolOfSubject(ctx, chap.SubjectID)
}

func (svc *service) SchoolOfTopic(ctx context.Context, topicID string) (string, error) {
	tpc, err := svc.repo.GetTopic(ctx, topicID)
	if err != nil {
		return "", err
	}
	return svc.SchoolOfChapter(ctx, tpc.ChapterID)
}
