package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, e.g. a [BatchItem]
}

// Operation phase enumeration
type Phase int

const (
	FetchArchives Phase = iota
	ArchivePlaylist
	ArchiveDone
	FetchCatalog
	ScanPlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchArchives:
		return "fetch_archives"
	case ArchivePlaylist:
		return "archive_playlist"
	case ArchiveDone:
		return "archive_done"
	case FetchCatalog:
		return "fetch_catalog"
	case ScanPlaylists:
		return "scan_playlists"
	default:
		return "unknown"
	}
}

// sendProgress sends update without blocking; updates are dropped when nobody is listening.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchArchivesUpdate(found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArchives,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d archived playlists", found),
	}
}

func archiveItemUpdate(step, total int, item BatchItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ArchivePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, item.Job.PlaylistID, item.Outcome),
		Data:    item,
	}
}

func archiveDoneUpdate(r *BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ArchiveDone,
		Step:    len(r.Items),
		Total:   len(r.Items),
		Message: fmt.Sprintf("%d archived, %d unchanged, %d not found, %d failed", r.Archived, r.Unchanged, r.NotFound, r.Failed),
		Data:    r,
	}
}
