package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AnuragJha1954/lms/core"
	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/core/user"
)

// roleMiddleware lets through users holding any of roles. master_admin holds every role.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errUnauthorized
			}
			if usr.HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// accessControl scopes every school owned resource to the members of that school.
type accessControl struct {
	schSvc school.Service
	curSvc curriculum.Service
}

// memberSchool returns the id of the school usr belongs to.
func (acl accessControl) memberSchool(ctx context.Context, usr user.User) (string, error) {
	if usr.Role == user.RoleStudent {
		std, err := acl.schSvc.GetStudentByUser(ctx, usr.ID)
		if err != nil {
			return "", err
		}
		return std.SchoolID, nil
	}
	sch, err := acl.schSvc.ManagedBy(ctx, usr)
	if err != nil {
		return "", err
	}
	return sch.ID, nil
}

// checkSchool fails unless the context user is a member of schoolID (or a master admin).
// Resources of other schools are reported as not found.
func (acl accessControl) checkSchool(ctx echo.Context, schoolID string) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errUnauthorized
	}
	if usr.IsMasterAdmin() {
		return nil
	}
	memberOf, err := acl.memberSchool(ctx.Request().Context(), usr)
	if err != nil {
		if core.IsNotFound(err) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user school")
	}
	if memberOf != schoolID {
		return errHttpNotFound
	}
	return nil
}

type schoolResolver func(ctx context.Context, id string) (string, error)

// scoped returns a middleware checking that the resource named by the `:id` path param
// belongs to the context user's school.
func (acl accessControl) scoped(resolve schoolResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			schoolID, err := resolve(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if err := acl.checkSchool(ctx, schoolID); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

func (acl accessControl) school() echo.MiddlewareFunc {
	return acl.scoped(func(_ context.Context, id string) (string, error) { return id, nil })
}

func (acl accessControl) class() echo.MiddlewareFunc   { return acl.scoped(acl.curSvc.SchoolOfClass) }
func (acl accessControl) subject() echo.MiddlewareFunc { return acl.scoped(acl.curSvc.SchoolOfSubject) }
func (acl accessControl) chapter() echo.MiddlewareFunc { return acl.scoped(acl.curSvc.SchoolOfChapter) }
func (acl accessControl) topic() echo.MiddlewareFunc   { return acl.scoped(acl.curSvc.SchoolOfTopic) }

// contextStudent returns the student profile of the context user.
func contextStudent(ctx echo.Context, svc school.Service) (school.StudentProfile, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return school.StudentProfile{}, errUnauthorized
	}
	std, err := svc.GetStudentByUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		if errors.Cause(err) == school.ErrStudentNotFound {
			return school.StudentProfile{}, errHttpForbidden
		}
		return school.StudentProfile{}, errors.Wrap(err, "finding student profile")
	}
	return std, nil
}

func (acl accessControl) content() echo.MiddlewareFunc {
	return acl.scoped(func(ctx context.Context, id string) (string, error) {
		cnt, err := acl.curSvc.GetContent(ctx, id)
		if err != nil {
			return "", err
		}
		return acl.curSvc.SchoolOfTopic(ctx, cnt.TopicID)
	})
}
