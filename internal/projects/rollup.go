package projects

import (
	"math"

	"github.com/HendryAvila/crewgate/internal/specstore"
)

// recomputeEpic rederives the epic's completedStories count and status
// from its stories. Invariants:
//
//	completedStories == count(stories with status done)
//	status == pending      when completedStories == 0
//	status == in_progress  when 0 < completedStories < len(stories)
//	status == completed    when completedStories == len(stories) and > 0
//
// Called after every story mutation; the stored values are never trusted.
func recomputeEpic(epic *specstore.Epic) {
	done := 0
	for _, s := range epic.Stories {
		if s.Status == specstore.StoryDone {
			done++
		}
	}
	epic.CompletedStories = done

	switch {
	case done == 0:
		epic.Status = specstore.EpicPending
	case done < len(epic.Stories):
		epic.Status = specstore.EpicInProgress
	default:
		epic.Status = specstore.EpicCompleted
	}
}

// recomputeProject rederives every epic roll-up in the project.
func recomputeProject(p *specstore.Project) {
	for i := range p.Epics {
		recomputeEpic(&p.Epics[i])
	}
}

// progressPercentage is round(completed/total*100), 0 when total is 0.
func progressPercentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// projectProgress counts stories across all epics and returns
// (done, total, percentage).
func projectProgress(p *specstore.Project) (int, int, int) {
	done, total := 0, 0
	for _, epic := range p.Epics {
		total += len(epic.Stories)
		for _, s := range epic.Stories {
			if s.Status == specstore.StoryDone {
				done++
			}
		}
	}
	return done, total, progressPercentage(done, total)
}
