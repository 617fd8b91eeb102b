package tasks

import (
	"context"

	"github.com/desertthunder/mtfs/internal/models"
)

// ArchiveJob is one row of an archive run.
type ArchiveJob struct {
	PlaylistID string
	Prefix     string
	Suffix     string
	SortOrder  models.SortOrder
	Tags       []string
}

// BatchItem is the result of one job.
type BatchItem struct {
	Job          ArchiveJob
	Outcome      Outcome
	PlaylistName string
	Err          error
}

// BatchResult tallies a batch run.
type BatchResult struct {
	Items     []BatchItem
	Archived  int
	Unchanged int
	NotFound  int
	Failed    int
}

func (r *BatchResult) add(item BatchItem) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeArchived:
		r.Archived++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeNotFound:
		r.NotFound++
	default:
		r.Failed++
	}
}

// ArchivedItems returns the items that produced a new archive.
func (r *BatchResult) ArchivedItems() []BatchItem {
	var items []BatchItem
	for _, item := range r.Items {
		if item.Outcome == OutcomeArchived {
			items = append(items, item)
		}
	}
	return items
}

// ArchiveBatch archives every job in order.
//
// The known archives are listed once up front. A failing job is recorded and the batch moves on;
// only a failure to list the known archives or a cancelled context stops the run.
// progress may be nil.
func (a *Archiver) ArchiveBatch(ctx context.Context, jobs []ArchiveJob, progress chan<- ProgressUpdate) (*BatchResult, error) {
	known, err := a.locator.FindAllArchived(ctx)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, fetchArchivesUpdate(len(known)))

	result := &BatchResult{}
	pacer := NewPacer(a.opts.BatchDelay)
	for i, job := range jobs {
		if err := pacer.Wait(ctx); err != nil {
			return result, err
		}

		outcome, name, err := a.archive(ctx, job.PlaylistID, known, ArchiveOptions{
			Prefix:    job.Prefix,
			Suffix:    job.Suffix,
			SortOrder: job.SortOrder,
		})
		if err != nil {
			outcome = OutcomeFailed
			a.logger.Error("failed to archive playlist", "playlist_id", job.PlaylistID, "err", err)
		}

		item := BatchItem{Job: job, Outcome: outcome, PlaylistName: name, Err: err}
		result.add(item)
		sendProgress(progress, archiveItemUpdate(i+1, len(jobs), item))
	}

	sendProgress(progress, archiveDoneUpdate(result))
	return result, nil
}
