package postgres

import (
	"context"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classkit/api/internal/domain"
)

// AnalyticsRepo computes the relational dashboard aggregates. All figures
// here come from the system-of-record; no cache or event-log reads.
type AnalyticsRepo struct {
	db *sqlx.DB
}

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

func (r *AnalyticsRepo) QuickKPIs(ctx context.Context, courseID int64) (domain.CourseKPIs, error) {
	var kpis domain.CourseKPIs
	const q = `
		SELECT
			(SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1) AS total_students,
			(SELECT COUNT(*) FROM assignments WHERE course_id = $1)        AS total_assignments,
			(SELECT COUNT(*) FROM assignments WHERE course_id = $1 AND due_date >= now()) AS upcoming_deadlines`
	err := r.db.GetContext(ctx, &kpis, q, courseID)
	return kpis, err
}

// EngagementTimeline returns daily post and submission counts for the last
// `days` days, oldest first. Days with no activity are zero-filled.
func (r *AnalyticsRepo) EngagementTimeline(ctx context.Context, courseID int64, days int) ([]domain.TimelineDay, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)

	type dayCount struct {
		Day   time.Time `db:"day"`
		Count int       `db:"count"`
	}

	var posts []dayCount
	const postsQ = `
		SELECT date_trunc('day', timestamp) AS day, COUNT(*) AS count
		FROM posts
		WHERE course_id = $1 AND timestamp >= $2
		GROUP BY day`
	if err := r.db.SelectContext(ctx, &posts, postsQ, courseID, since); err != nil {
		return nil, err
	}

	var subs []dayCount
	const subsQ = `
		SELECT date_trunc('day', s.timestamp) AS day, COUNT(*) AS count
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		WHERE a.course_id = $1 AND s.timestamp >= $2
		GROUP BY day`
	if err := r.db.SelectContext(ctx, &subs, subsQ, courseID, since); err != nil {
		return nil, err
	}

	byDate := make(map[string]*domain.TimelineDay, days)
	timeline := make([]domain.TimelineDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := time.Now().UTC().AddDate(0, 0, -i).Format("2006-01-02")
		timeline = append(timeline, domain.TimelineDay{Date: key})
		byDate[key] = &timeline[len(timeline)-1]
	}
	for _, p := range posts {
		if d, ok := byDate[p.Day.UTC().Format("2006-01-02")]; ok {
			d.Posts = p.Count
		}
	}
	for _, s := range subs {
		if d, ok := byDate[s.Day.UTC().Format("2006-01-02")]; ok {
			d.Submissions = s.Count
		}
	}
	return timeline, nil
}

// AssignmentStats returns submission status and grade distributions for the
// course. Missing counts assume every enrolled student owes every assignment.
func (r *AnalyticsRepo) AssignmentStats(ctx context.Context, courseID int64) (domain.AssignmentStats, error) {
	stats := domain.AssignmentStats{
		GradesDistribution: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0},
	}

	var counts struct {
		Assignments int `db:"assignments"`
		Enrolled    int `db:"enrolled"`
		Submissions int `db:"submissions"`
		Late        int `db:"late"`
	}
	const countsQ = `
		SELECT
			(SELECT COUNT(*) FROM assignments WHERE course_id = $1) AS assignments,
			(SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1) AS enrolled,
			(SELECT COUNT(*) FROM submissions s JOIN assignments a ON a.id = s.assignment_id
				WHERE a.course_id = $1) AS submissions,
			(SELECT COUNT(*) FROM submissions s JOIN assignments a ON a.id = s.assignment_id
				WHERE a.course_id = $1 AND s.timestamp > a.due_date) AS late`
	if err := r.db.GetContext(ctx, &counts, countsQ, courseID); err != nil {
		return stats, err
	}
	if counts.Assignments == 0 {
		return stats, nil
	}

	missing := counts.Assignments*counts.Enrolled - counts.Submissions
	if missing < 0 {
		missing = 0
	}
	stats.StatusBreakdown = domain.StatusBreakdown{
		Submitted: counts.Submissions - counts.Late,
		Late:      counts.Late,
		Missing:   missing,
	}

	type gradeBucket struct {
		Bucket string `db:"bucket"`
		Count  int    `db:"count"`
	}
	var buckets []gradeBucket
	const gradesQ = `
		SELECT CASE
			WHEN s.grade >= 90 THEN 'A'
			WHEN s.grade >= 80 THEN 'B'
			WHEN s.grade >= 70 THEN 'C'
			WHEN s.grade >= 60 THEN 'D'
			ELSE 'F'
		END AS bucket, COUNT(*) AS count
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		WHERE a.course_id = $1 AND s.grade IS NOT NULL
		GROUP BY bucket`
	if err := r.db.SelectContext(ctx, &buckets, gradesQ, courseID); err != nil {
		return stats, err
	}
	for _, b := range buckets {
		stats.GradesDistribution[b.Bucket] = b.Count
	}
	return stats, nil
}

// Difficulty returns per-assignment submission counts and grade averages.
func (r *AnalyticsRepo) Difficulty(ctx context.Context, courseID int64) ([]domain.AssignmentDifficulty, error) {
	var out []domain.AssignmentDifficulty
	const q = `
		SELECT a.title,
			COUNT(s.id) AS submission_count,
			ROUND(COALESCE(AVG(s.grade), 0)::numeric, 2)::float8 AS avg_grade
		FROM assignments a
		LEFT JOIN submissions s ON s.assignment_id = a.id
		WHERE a.course_id = $1
		GROUP BY a.id, a.title
		ORDER BY a.id`
	if err := r.db.SelectContext(ctx, &out, q, courseID); err != nil {
		return nil, err
	}
	return out, nil
}

// Completion estimates how much of the course's expected submission volume
// has actually arrived, as a percentage.
func (r *AnalyticsRepo) Completion(ctx context.Context, courseID int64) (float64, error) {
	var counts struct {
		Enrolled    int `db:"enrolled"`
		Assignments int `db:"assignments"`
		Submissions int `db:"submissions"`
	}
	const q = `
		SELECT
			(SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1) AS enrolled,
			(SELECT COUNT(*) FROM assignments WHERE course_id = $1) AS assignments,
			(SELECT COUNT(*) FROM submissions s JOIN assignments a ON a.id = s.assignment_id
				WHERE a.course_id = $1) AS submissions`
	if err := r.db.GetContext(ctx, &counts, q, courseID); err != nil {
		return 0, err
	}
	if counts.Enrolled == 0 || counts.Assignments == 0 {
		return 0, nil
	}
	pct := float64(counts.Submissions) / float64(counts.Enrolled*counts.Assignments) * 100
	return math.Round(pct*10) / 10, nil
}
