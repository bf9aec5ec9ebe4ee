package progress

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/school"
)

// RecentWindow bounds how far back the dashboard looks for recently accessed topics.
const RecentWindow = 24 * time.Hour

var nowFunc = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type (
	Repository interface {
		// Upsert inserts p, or overwrites the percentage, completion and access time
		// of the existing row for (p.StudentID, p.TopicID).
		Upsert(ctx context.Context, p TopicProgress, exec ...core.DBExecutor) (TopicProgress, error)
		Get(ctx context.Context, studentID, topicID string, exec ...core.DBExecutor) (TopicProgress, error)
		ListByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]TopicProgress, error)
	}

	Service interface {
		// Recompute derives the student's progress on the topic from its contents' completion flags.
		Recompute(ctx context.Context, studentID, topicID string) (TopicProgress, error)
		// MarkContent sets the completion flag of a content and recomputes the student's topic progress.
		MarkContent(ctx context.Context, studentID, contentID string, completed bool) (TopicProgress, error)
		Get(ctx context.Context, studentID, topicID string) (TopicProgress, error)
		Dashboard(ctx context.Context, std school.StudentProfile) (Dashboard, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		curRepo curriculum.Repository
		schRepo school.Repository
	}
)

var (
	_ Service = (*service)(nil)

	// errors
	ErrProgressNotFound = core.NewNotFoundError("progress not found")
)

func NewService(db core.DB, repo Repository, curRepo curriculum.Repository, schRepo school.Repository) Service {
	return &service{
		db:      db,
		repo:    repo,
		curRepo: curRepo,
		schRepo: schRepo,
	}
}

func (svc *service) Recompute(ctx context.Context, studentID, topicID string) (TopicProgress, error) {
	var p TopicProgress
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		p, err = svc.recompute(ctx, studentID, topicID, tx)
		return err
	})
	return p, err
}

func (svc *service) recompute(ctx context.Context, studentID, topicID string, tx core.DBExecutor) (TopicProgress, error) {
	if _, err := svc.schRepo.GetStudent(ctx, studentID, tx); err != nil {
		return TopicProgress{}, err
	}
	if _, err := svc.curRepo.GetTopic(ctx, topicID, tx); err != nil {
		return TopicProgress{}, err
	}
	count, err := svc.curRepo.CountContents(ctx, topicID, tx)
	if err != nil {
		return TopicProgress{}, err
	}

	pct := Percentage(count.Total, count.Completed)
	p, err := svc.repo.Upsert(ctx, TopicProgress{
		StudentID:            studentID,
		TopicID:              topicID,
		CompletionPercentage: pct,
		IsCompleted:          pct == 100,
		LastAccessed:         nowFunc(),
	}, tx)
	return p, errors.Wrap(err, "saving topic progress")
}

func (svc *service) MarkContent(ctx context.Context, studentID, contentID string, completed bool) (TopicProgress, error) {
	var p TopicProgress
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		cnt, err := svc.curRepo.SetContentCompleted(ctx, contentID, completed, tx)
		if err != nil {
			return err
		}
		p, err = svc.recompute(ctx, studentID, cnt.TopicID, tx)
		return err
	})
	return p, err
}

// Get returns the stored progress, or a zero progress when the student never accessed the topic.
func (svc *service) Get(ctx context.Context, studentID, topicID string) (TopicProgress, error) {
	p, err := svc.repo.Get(ctx, studentID, topicID)
	if errors.Cause(err) == ErrProgressNotFound {
		return TopicProgress{StudentID: studentID, TopicID: topicID}, nil
	}
	return p, err
}

func (svc *service) Dashboard(ctx context.Context, std school.StudentProfile) (Dashboard, error) {
	subjects, err := svc.curRepo.ListSubjects(ctx, std.ClassID)
	if err != nil {
		return Dashboard{}, err
	}
	progresses, err := svc.repo.ListByStudent(ctx, std.ID)
	if err != nil {
		return Dashboard{}, err
	}
	byTopic := make(map[string]TopicProgress, len(progresses))
	for _, p := range progresses {
		byTopic[p.TopicID] = p
	}

	dash := Dashboard{
		StudentID:    std.ID,
		Subjects:     make([]SubjectProgress, 0, len(subjects)),
		RecentTopics: []RecentTopic{},
	}
	since := nowFunc().Add(-RecentWindow)
	for _, sub := range subjects {
		topics, err := svc.curRepo.ListSubjectTopics(ctx, sub.ID)
		if err != nil {
			return Dashboard{}, err
		}
		var sum float64
		for _, tpc := range topics {
			p, ok := byTopic[tpc.ID]
			if !ok {
				continue
			}
			sum += p.CompletionPercentage
			if p.CompletionPercentage > 0 && !p.IsCompleted && p.LastAccessed.After(since) {
				dash.RecentTopics = append(dash.RecentTopics, RecentTopic{
					TopicID:              tpc.ID,
					TopicName:            tpc.Name,
					CompletionPercentage: core.Round2(p.CompletionPercentage),
					LastAccessed:         p.LastAccessed,
				})
			}
		}
		dash.Subjects = append(dash.Subjects, SubjectProgress{
			SubjectID:            sub.ID,
			SubjectName:          sub.Name,
			CompletionPercentage: subjectPercentage(len(topics), sum),
		})
	}

	sort.SliceStable(dash.RecentTopics, func(i, j int) bool {
		return dash.RecentTopics[i].LastAccessed.After(dash.RecentTopics[j].LastAccessed)
	})
	return dash, nil
}
