package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core/curriculum"
	"github.com/AnuragJha1954/lms/core/school"
	"github.com/AnuragJha1954/lms/core/user"
)

func CreateUser(t *testing.T, repo user.Repository, name, email, role string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:        name,
		Email:       email,
		Role:        role,
		AccountType: user.AccountSchool,
		IsActive:    isActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateSchool creates a school with its school account. The account email is derived from name.
func CreateSchool(t *testing.T, usrRepo user.Repository, repo school.Repository, name string) (school.School, user.User) {
	t.Helper()
	email := slug(name) + "@school.test"
	usr := CreateUser(t, usrRepo, name, email, user.RoleSchool, true)
	sch, err := repo.CreateSchool(context.Background(), school.School{
		UserID:    usr.ID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch, usr
}

func CreateClass(t *testing.T, repo school.Repository, schoolID, name string) school.Class {
	t.Helper()
	cls, err := repo.CreateClass(context.Background(), school.Class{
		SchoolID:  schoolID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateTeacher(t *testing.T, usrRepo user.Repository, repo school.Repository, schoolID, name string) (school.TeacherProfile, user.User) {
	t.Helper()
	email := slug(name) + "@teacher.test"
	usr := CreateUser(t, usrRepo, name, email, user.RoleTeacher, true)
	tchr, err := repo.CreateTeacher(context.Background(), school.TeacherProfile{
		UserID:    usr.ID,
		SchoolID:  schoolID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tchr, usr
}

func CreateStudent(t *testing.T, usrRepo user.Repository, repo school.Repository, cls school.Class, name string) (school.StudentProfile, user.User) {
	t.Helper()
	email := slug(name) + "@student.test"
	usr := CreateUser(t, usrRepo, name, email, user.RoleStudent, true)
	std, err := repo.CreateStudent(context.Background(), school.StudentProfile{
		UserID:    usr.ID,
		SchoolID:  cls.SchoolID,
		ClassID:   cls.ID,
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std, usr
}

func CreateSubject(t *testing.T, repo curriculum.Repository, classID, name string, teacherID ...string) curriculum.Subject {
	t.Helper()
	sub := curriculum.Subject{ClassID: classID, Name: name, CreatedAt: time.Now().UTC()}
	if len(teacherID) > 0 {
		sub.TeacherID = null.StringFrom(teacherID[0])
	}
	sub, err := repo.CreateSubject(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateChapter(t *testing.T, repo curriculum.Repository, subjectID, name string) curriculum.Chapter {
	t.Helper()
	chap, err := repo.CreateChapter(context.Background(), curriculum.Chapter{
		SubjectID: subjectID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateChapter() failed: %v", err)
	}
	return chap
}

func CreateTopic(t *testing.T, repo curriculum.Repository, chapterID, name string) curriculum.Topic {
	t.Helper()
	tpc, err := repo.CreateTopic(context.Background(), curriculum.Topic{
		ChapterID: chapterID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	return tpc
}

func CreateContent(t *testing.T, repo curriculum.Repository, topicID string, order int, completed bool) curriculum.Content {
	t.Helper()
	cnt, err := repo.CreateContent(context.Background(), curriculum.Content{
		TopicID:     topicID,
		Link:        "https://videos.test/" + topicID,
		Order:       order,
		IsActive:    true,
		IsCompleted: completed,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateContent() failed: %v", err)
	}
	return cnt
}

// Curriculum is a one class school with a single subject, chapter and topic.
type Curriculum struct {
	School  school.School
	Owner   user.User
	Class   school.Class
	Subject curriculum.Subject
	Chapter curriculum.Chapter
	Topic   curriculum.Topic
}

func CreateCurriculum(t *testing.T, usrRepo user.Repository, schRepo school.Repository, curRepo curriculum.Repository, schoolName string) Curriculum {
	t.Helper()
	sch, owner := CreateSchool(t, usrRepo, schRepo, schoolName)
	cls := CreateClass(t, schRepo, sch.ID, "Grade 6")
	sub := CreateSubject(t, curRepo, cls.ID, "Mathematics")
	chap := CreateChapter(t, curRepo, sub.ID, "Fractions")
	tpc := CreateTopic(t, curRepo, chap.ID, "Adding fractions")
	return Curriculum{School: sch, Owner: owner, Class: cls, Subject: sub, Chapter: chap, Topic: tpc}
}

func slug(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b = append(b, c)
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
		case c == ' ' || c == '-' || c == '_':
			b = append(b, '.')
		}
	}
	return string(b)
}
