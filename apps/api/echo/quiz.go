package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/quiz"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/core/user"
)

type quizApi struct {
	svc      quiz.Service
	schSvc   school.Service
	curSvc   curriculum.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, auth echo.MiddlewareFunc, acl accessControl, deps ServerDeps) {
	api := quizApi{
		svc:      deps.QuizSvc,
		schSvc:   deps.SchoolSvc,
		curSvc:   deps.CurriculumSvc,
		validate: deps.Validate,
	}
	authors := roleMiddleware(user.RoleSchool, user.RoleTeacher)

	g.POST("/topics/:id/quizzes", api.create, auth, authors, acl.topic())
	g.GET("/topics/:id/quizzes", api.listByTopic, auth, acl.topic())
	g.GET("/teachers/:id/topics/:topic_id/quizzes", api.listByTeacherTopic, auth, acl.scoped(api.schoolOfTeacher))

	qg := g.Group("/quizzes/:id", auth, acl.scoped(api.schoolOfQuiz))
	qg.GET("", api.retrieve)
	qg.DELETE("", api.destroy, authors)
	qg.POST("/attempts", api.submit, roleMiddleware(user.RoleStudent))
	qg.GET("/attempts/me", api.retrieveAttempt, roleMiddleware(user.RoleStudent))
}

func (api *quizApi) schoolOfQuiz(ctx context.Context, id string) (string, error) {
	qz, err := api.svc.Get(ctx, id, false)
	if err != nil {
		return "", err
	}
	return api.curSvc.SchoolOfTopic(ctx, qz.TopicID)
}

func (api *quizApi) schoolOfTeacher(ctx context.Context, id string) (string, error) {
	tchr, err := api.schSvc.GetTeacher(ctx, id)
	if err != nil {
		return "", err
	}
	return tchr.SchoolID, nil
}

// Handlers

func (api *quizApi) create(ctx echo.Context) error {
	var data CreateQuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateQuizRequest")
	}
	if err := data.NewQuiz.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	teacherID := data.TeacherID
	if usr.IsTeacher() {
		// teachers always author as themselves
		tchr, err := api.schSvc.GetTeacherByUser(ctx.Request().Context(), usr.ID)
		if err != nil {
			return errors.Wrap(err, "finding teacher profile")
		}
		teacherID = &tchr.ID
	}

	qz, err := api.svc.Create(ctx.Request().Context(), ctx.Param("id"), teacherID, data.NewQuiz)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) listByTopic(ctx echo.Context) error {
	quizzes, err := api.svc.ListByTopic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) listByTeacherTopic(ctx echo.Context) error {
	quizzes, err := api.svc.ListByTeacherTopic(ctx.Request().Context(), ctx.Param("id"), ctx.Param("topic_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	qz, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), !usr.IsStudent())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) submit(ctx echo.Context) error {
	var data quiz.SubmitAttempt
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAttempt")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	std, err := contextStudent(ctx, api.schSvc)
	if err != nil {
		return err
	}

	att, err := api.svc.Submit(ctx.Request().Context(), std, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SubmitAttemptResponse{
		AttemptID: att.ID,
		QuizID:    att.QuizID,
		Score:     att.Score,
	})
}

func (api *quizApi) retrieveAttempt(ctx echo.Context) error {
	std, err := contextStudent(ctx, api.schSvc)
	if err != nil {
		return err
	}
	att, err := api.svc.GetAttempt(ctx.Request().Context(), std.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, att)
}

type (
	CreateQuizRequest struct {
		quiz.NewQuiz
		// TeacherID is ignored for teachers, who always author their own quizzes.
		TeacherID *string `json:"teacher_id"`
	}

	SubmitAttemptResponse struct {
		AttemptID string  `json:"attempt_id"`
		QuizID    string  `json:"quiz_id"`
		Score     float64 `json:"score"`
	}
)
