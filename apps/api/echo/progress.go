package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/progress"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/core/user"
)

type progressApi struct {
	svc    progress.Service
	curSvc curriculum.Service
	schSvc school.Service
}

func registerProgressAPI(g *echo.Group, auth echo.MiddlewareFunc, acl accessControl, deps ServerDeps) {
	api := progressApi{
		svc:    deps.ProgressSvc,
		curSvc: deps.CurriculumSvc,
		schSvc: deps.SchoolSvc,
	}

	g.PUT("/contents/:id/completion", api.markContent, auth, roleMiddleware(user.RoleStudent), acl.content())
	g.PUT("/topics/:id/completion", api.markTopic, auth, roleMiddleware(user.RoleSchool, user.RoleTeacher), acl.topic())

	mg := g.Group("/students/me", auth, roleMiddleware(user.RoleStudent))
	mg.GET("/dashboard", api.dashboard)
	mg.GET("/topics/:id/progress", api.retrieve, acl.topic())
}

// Handlers

func (api *progressApi) markContent(ctx echo.Context) error {
	var data CompletionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompletionRequest")
	}
	std, err := contextStudent(ctx, api.schSvc)
	if err != nil {
		return err
	}

	p, err := api.svc.MarkContent(ctx.Request().Context(), std.ID, ctx.Param("id"), data.completed())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *progressApi) markTopic(ctx echo.Context) error {
	var data CompletionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompletionRequest")
	}

	tpc, err := api.curSvc.SetTopicCompleted(ctx.Request().Context(), ctx.Param("id"), data.completed())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpc)
}

func (api *progressApi) retrieve(ctx echo.Context) error {
	std, err := contextStudent(ctx, api.schSvc)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), std.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *progressApi) dashboard(ctx echo.Context) error {
	std, err := contextStudent(ctx, api.schSvc)
	if err != nil {
		return err
	}
	dash, err := api.svc.Dashboard(ctx.Request().Context(), std)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

type CompletionRequest struct {
	// IsCompleted defaults to true.
	IsCompleted *bool `json:"is_completed"`
}

func (cr CompletionRequest) completed() bool {
	return cr.IsCompleted == nil || *cr.IsCompleted
}
