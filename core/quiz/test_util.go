package quiz

import (
	"context"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/school"
)

type serviceMock struct {
	*service
}

var _ Service = (*serviceMock)(nil)

// NewServiceMock returns a Service that sends result mails synchronously.
func NewServiceMock(
	db core.DB,
	repo Repository,
	curRepo curriculum.Repository,
	schRepo school.Repository,
	mailSvc core.EmailService,
) Service {
	return &serviceMock{newService(db, repo, curRepo, schRepo, mailSvc)}
}

func (svc *serviceMock) Submit(ctx context.Context, std school.StudentProfile, quizID string, data SubmitAttempt) (Attempt, error) {
	att, err := svc.service.submit(ctx, std, quizID, data)
	if err != nil {
		return Attempt{}, err
	}
	svc.sendResultMail(std, att.quiz, att.questions, att.Attempt)
	return att.Attempt, nil
}
