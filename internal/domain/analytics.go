package domain

// Dashboard aggregate shapes. KPI and distribution figures come from the
// relational store and are always present; RecentActivity comes from the
// event log and degrades to empty when that store is unavailable.

type CourseKPIs struct {
	TotalStudents     int `json:"total_students" db:"total_students"`
	TotalAssignments  int `json:"total_assignments" db:"total_assignments"`
	UpcomingDeadlines int `json:"upcoming_deadlines" db:"upcoming_deadlines"`
}

type TimelineDay struct {
	Date        string `json:"date"`
	Posts       int    `json:"posts"`
	Submissions int    `json:"submissions"`
}

type StatusBreakdown struct {
	Submitted int `json:"submitted"`
	Late      int `json:"late"`
	Missing   int `json:"missing"`
}

type AssignmentStats struct {
	StatusBreakdown    StatusBreakdown `json:"status_breakdown"`
	GradesDistribution map[string]int  `json:"grades_distribution"`
}

type AssignmentDifficulty struct {
	Title           string  `json:"title" db:"title"`
	SubmissionCount int     `json:"submission_count" db:"submission_count"`
	AvgGrade        float64 `json:"avg_grade" db:"avg_grade"`
}

type Dashboard struct {
	KPIs               CourseKPIs             `json:"kpis"`
	EngagementTimeline []TimelineDay          `json:"engagement_timeline"`
	AssignmentStats    AssignmentStats        `json:"assignment_stats"`
	Difficulty         []AssignmentDifficulty `json:"difficulty_indicators"`
	CourseCompletion   float64                `json:"course_completion"`
	RecentActivity     []Event                `json:"recent_activity"`
}
