package curriculum

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/AnuragJha1954/lms/core"
)

type Subject struct {
	ID          string      `json:"id"`
	ClassID     string      `json:"class_id"`
	TeacherID   null.String `json:"teacher_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Chapter struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Topic is the smallest curriculum unit with trackable completion.
// IsCompleted is a single flag shared by every student of the class.
type Topic struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapter_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Content is a single learning asset of a Topic.
// IsCompleted is a single flag shared by every student of the class.
type Content struct {
	ID          string    `json:"id"`
	TopicID     string    `json:"topic_id"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContentCount holds how many contents a topic has, and how many of them are completed.
type ContentCount struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
}

type NewSubject struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description"`
	TeacherID   *string `json:"teacher_id"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	if ns.TeacherID != nil {
		id := core.CleanString(*ns.TeacherID)
		if id == "" {
			ns.TeacherID = nil
		} else {
			ns.TeacherID = &id
		}
	}
	return validate.Struct(ns)
}

type NewChapter struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (nc *NewChapter) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type NewTopic struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (nt *NewTopic) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

type NewContent struct {
	Link        string `json:"link" validate:"required,url,max=500"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

func (nc *NewContent) Validate(validate *validator.Validate) error {
	nc.Link = core.CleanString(nc.Link)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}
