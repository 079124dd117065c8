package services

import (
	"sort"
	"time"

	"lms/backend/models"

	"gorm.io/datatypes"
)

const (
	recentWindow     = 7 * 24 * time.Hour
	activeWindow     = 30 * 24 * time.Hour
	historyRetention = 30 * 24 * time.Hour
)

// ProgressPercent is completed/total*100 over the course's current chapters.
// Completed ids of removed chapters are not counted. A course without
// chapters counts as 0.
func ProgressPercent(completed []string, chapters []models.Chapter) float64 {
	if len(chapters) == 0 {
		return 0
	}
	return float64(CompletedChapterCount(completed, chapters)) / float64(len(chapters)) * 100
}

// CompletedChapterCount counts the completed ids that are still chapters of the course.
func CompletedChapterCount(completed []string, chapters []models.Chapter) int {
	n := 0
	for _, id := range completed {
		if hasChapter(chapters, id) {
			n++
		}
	}
	return n
}

// RecomputeAnalytics derives a fresh Analytics value from the course's
// enrollments and chapters. The previous enrollment history and chapter view
// counters are carried over; it does not touch the database.
func RecomputeAnalytics(course *models.Course, now time.Time) models.Analytics {
	total := len(course.Enrollments)
	out := models.Analytics{TotalEnrollments: total}

	recentSince := now.Add(-recentWindow)
	activeSince := now.Add(-activeWindow)
	var sum float64
	for _, e := range course.Enrollments {
		if !e.EnrolledAt.Before(recentSince) {
			out.RecentEnrollments++
		}
		if at := e.Progress.LastAccessedAt; at != nil && !at.Before(activeSince) {
			out.ActiveStudents++
		}
		sum += ProgressPercent(e.Progress.CompletedChapters, course.Chapters)
	}
	if total > 0 {
		out.AverageProgress = sum / float64(total)
	}

	out.EnrollmentHistory = rollHistory(course.Analytics.EnrollmentHistory, now, total)
	out.ChapterViews = liveChapterViews(course.Analytics.ChapterViews, course.Chapters)
	return out
}

// rollHistory writes today's total into the history and drops buckets older
// than the retention window. Result is sorted by date ascending.
func rollHistory(prev []models.HistoryBucket, now time.Time, count int) datatypes.JSONSlice[models.HistoryBucket] {
	today := dayStart(now)
	cutoff := now.Add(-historyRetention)

	out := make(datatypes.JSONSlice[models.HistoryBucket], 0, len(prev)+1)
	found := false
	for _, b := range prev {
		if sameDay(b.Date, today) {
			if found {
				continue
			}
			b = models.HistoryBucket{Date: today, Count: count}
			found = true
		}
		if b.Date.After(cutoff) {
			out = append(out, b)
		}
	}
	if !found {
		out = append(out, models.HistoryBucket{Date: today, Count: count})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// liveChapterViews drops counters for chapters the course no longer has.
func liveChapterViews(prev []models.ChapterView, chapters []models.Chapter) datatypes.JSONSlice[models.ChapterView] {
	live := make(map[string]struct{}, len(chapters))
	for _, ch := range chapters {
		live[ch.ID] = struct{}{}
	}
	out := make(datatypes.JSONSlice[models.ChapterView], 0, len(prev))
	for _, v := range prev {
		if _, ok := live[v.Chapter]; ok {
			out = append(out, v)
		}
	}
	return out
}

// countChapterView increments the view counter for chapterID, creating it on first view.
func countChapterView(views []models.ChapterView, chapterID string, now time.Time) datatypes.JSONSlice[models.ChapterView] {
	out := make(datatypes.JSONSlice[models.ChapterView], 0, len(views)+1)
	seen := false
	for _, v := range views {
		if v.Chapter == chapterID {
			v.Views++
			at := now
			v.LastViewed = &at
			seen = true
		}
		out = append(out, v)
	}
	if !seen {
		at := now
		out = append(out, models.ChapterView{Chapter: chapterID, Views: 1, LastViewed: &at})
	}
	return out
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func analyticsColumns(a models.Analytics) map[string]interface{} {
	return map[string]interface{}{
		"analytics_total_enrollments":  a.TotalEnrollments,
		"analytics_recent_enrollments": a.RecentEnrollments,
		"analytics_active_students":    a.ActiveStudents,
		"analytics_average_progress":   a.AverageProgress,
		"analytics_enrollment_history": a.EnrollmentHistory,
		"analytics_chapter_views":      a.ChapterViews,
	}
}
