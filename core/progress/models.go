package progress

import (
	"time"

	"github.com/AnuragJha1954/lms/core"
)

// TopicProgress is the completion snapshot of one student on one topic.
// There is at most one per (StudentID, TopicID).
type TopicProgress struct {
	ID                   string    `json:"id"`
	StudentID            string    `json:"student_id"`
	TopicID              string    `json:"topic_id"`
	CompletionPercentage float64   `json:"completion_percentage"`
	IsCompleted          bool      `json:"is_completed"`
	LastAccessed         time.Time `json:"last_accessed"`
}

type SubjectProgress struct {
	SubjectID            string  `json:"subject_id"`
	SubjectName          string  `json:"subject_name"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type RecentTopic struct {
	TopicID              string    `json:"topic_id"`
	TopicName            string    `json:"topic_name"`
	CompletionPercentage float64   `json:"completion_percentage"`
	LastAccessed         time.Time `json:"last_accessed"`
}

type Dashboard struct {
	StudentID    string            `json:"student_id"`
	Subjects     []SubjectProgress `json:"subjects"`
	RecentTopics []RecentTopic     `json:"recent_topics"`
}

// Percentage returns completed contents over total contents, in [0, 100].
// A topic without content is 0% complete.
func Percentage(total, completed int) float64 {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return 100 * float64(completed) / float64(total)
}

// subjectPercentage averages per-topic percentages, topics without progress counting as 0.
func subjectPercentage(topicCount int, sum float64) float64 {
	if topicCount == 0 {
		return 0
	}
	return core.Round2(sum / float64(topicCount))
}
