package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/user"
)

type curriculumApi struct {
	svc      curriculum.Service
	validate *validator.Validate
}

func registerCurriculumAPI(g *echo.Group, auth echo.MiddlewareFunc, acl accessControl, deps ServerDeps) {
	api := curriculumApi{
		svc:      deps.CurriculumSvc,
		validate: deps.Validate,
	}
	managers := roleMiddleware(user.RoleSchool, user.RoleTeacher)

	cg := g.Group("/classes/:id", auth, acl.class())
	cg.GET("/subjects", api.listSubjects)
	cg.POST("/subjects", api.createSubject, roleMiddleware(user.RoleSchool))

	sg := g.Group("/subjects/:id", auth, acl.subject())
	sg.GET("", api.retrieveSubject)
	sg.PUT("/teacher", api.assignTeacher, roleMiddleware(user.RoleSchool))
	sg.GET("/chapters", api.listChapters)
	sg.POST("/chapters", api.createChapter, managers)

	chg := g.Group("/chapters/:id", auth, acl.chapter())
	chg.GET("", api.retrieveChapter)
	chg.GET("/topics", api.listTopics)
	chg.POST("/topics", api.createTopic, managers)

	tg := g.Group("/topics/:id", auth, acl.topic())
	tg.GET("", api.retrieveTopic)
	tg.DELETE("", api.destroyTopic, managers)
	tg.GET("/contents", api.listContents)
	tg.POST("/contents", api.createContent, managers)
}

// Handlers

func (api *curriculumApi) createSubject(ctx echo.Context) error {
	var data curriculum.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *curriculumApi) listSubjects(ctx echo.Context) error {
	subjects, err := api.svc.ListSubjects(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *curriculumApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *curriculumApi) assignTeacher(ctx echo.Context) error {
	var data AssignTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacherRequest")
	}

	sub, err := api.svc.AssignTeacher(ctx.Request().Context(), ctx.Param("id"), data.TeacherID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *curriculumApi) createChapter(ctx echo.Context) error {
	var data curriculum.NewChapter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChapter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	chap, err := api.svc.CreateChapter(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, chap)
}

func (api *curriculumApi) listChapters(ctx echo.Context) error {
	chapters, err := api.svc.ListChapters(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chapters)
}

func (api *curriculumApi) retrieveChapter(ctx echo.Context) error {
	chap, err := api.svc.GetChapter(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chap)
}

func (api *curriculumApi) createTopic(ctx echo.Context) error {
	var data curriculum.NewTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tpc, err := api.svc.CreateTopic(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tpc)
}

func (api *curriculumApi) listTopics(ctx echo.Context) error {
	topics, err := api.svc.ListTopics(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *curriculumApi) retrieveTopic(ctx echo.Context) error {
	tpc, err := api.svc.GetTopic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpc)
}

func (api *curriculumApi) destroyTopic(ctx echo.Context) error {
	if err := api.svc.DeleteTopic(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) createContent(ctx echo.Context) error {
	var data curriculum.NewContent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cnt, err := api.svc.CreateContent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cnt)
}

func (api *curriculumApi) listContents(ctx echo.Context) error {
	contents, err := api.svc.ListContents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, contents)
}

type AssignTeacherRequest struct {
	// TeacherID unassigns the subject when null.
	TeacherID *string `json:"teacher_id"`
}
