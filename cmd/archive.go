package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mtfs/internal/formatter"
	"github.com/desertthunder/mtfs/internal/notify"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/desertthunder/mtfs/internal/tasks"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"
)

// ArchiveRun archives the playlists named by the input argument under the single-instance lock.
func (r *Runner) ArchiveRun(ctx context.Context, cmd *cli.Command) error {
	jobs, err := formatter.ParseArchiveInput(cmd.StringArg("input"))
	if err != nil {
		return err
	}

	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("archiving playlists", "count", len(jobs))

	progress := make(chan tasks.ProgressUpdate, len(jobs)+2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.printProgress(update)
		}
	}()

	result, err := engine.Archiver.ArchiveBatch(ctx, jobs, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("archive run stopped: %w", err)
	}

	formatter.BatchTable(r.output, result)

	if cmd.Bool("mail") {
		r.mailReport(ctx, result)
	}
	return nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ArchivePlaylist:
		item, ok := update.Data.(tasks.BatchItem)
		if !ok {
			return
		}
		name := item.PlaylistName
		if name == "" {
			name = item.Job.PlaylistID
		}
		r.writePlain("[%d/%d] %s %s\n", update.Step, update.Total, formatter.Styles.Outcome(item.Outcome), name)
	case tasks.FetchArchives:
		r.writePlain("%s\n", formatter.Styles.Help(update.Message))
	}
}

func (r *Runner) mailReport(ctx context.Context, result *tasks.BatchResult) {
	mailer := r.mailer
	if mailer == nil {
		if !r.config.Mail.Enabled {
			r.logger.Warn("--mail given but mail is disabled in the config")
			return
		}
		m, err := notify.NewSMTPMailer(r.config.Mail)
		if err != nil {
			r.logger.Warn("cannot send archive report", "error", err)
			return
		}
		mailer = m
	}
	notify.NewReporter(mailer, r.logger).Report(ctx, result)
}

// lock takes the archive lock and returns its release function.
func (r *Runner) lock() (func(), error) {
	path, err := r.archiveLockPath()
	if err != nil {
		return nil, err
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: lock held at %s", shared.ErrLocked, path)
	}

	r.logger.Debug("acquired archive lock", "path", path)
	return func() {
		if err := fl.Unlock(); err != nil {
			r.logger.Warn("failed to release lock", "path", path, "error", err)
		}
	}, nil
}

// ArchiveList prints the archived playlists in the library.
func (r *Runner) ArchiveList(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	archived, err := engine.Locator.FindAllArchived(ctx)
	if err != nil {
		return err
	}

	if len(archived) == 0 {
		return r.writePlain("No archived playlists\n")
	}
	formatter.ArchivedTable(r.output, archived)
	return nil
}

// ArchiveDelete unfollows every archived playlist after a double confirmation.
//
// The prompts are skipped with --yes; without it a non-interactive session is refused.
func (r *Runner) ArchiveDelete(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.connect(ctx)
	if err != nil {
		return err
	}

	archived, err := engine.Locator.FindAllArchived(ctx)
	if err != nil {
		return err
	}
	if len(archived) == 0 {
		return r.writePlain("No archived playlists\n")
	}

	if !cmd.Bool("yes") {
		if !r.interactive() {
			return fmt.Errorf("%w: pass --yes to delete without a terminal", shared.ErrAborted)
		}

		for _, prompt := range [][2]string{
			{fmt.Sprintf("Delete %d archived playlists?", len(archived)), "They are unfollowed from your library."},
			{"Are you sure?", "This cannot be undone."},
		} {
			ok, err := r.confirm(prompt[0], prompt[1])
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAborted, err)
			}
			if !ok {
				return r.writePlain("%s\n", formatter.Styles.Warn("Aborted"))
			}
		}
	}

	deleted, err := engine.Locator.DeleteArchived(ctx)
	if len(deleted) > 0 {
		formatter.ArchivedTable(r.output, deleted)
	}
	if err != nil {
		return fmt.Errorf("deleted %d playlists before failing: %w", len(deleted), err)
	}
	return r.writePlain("%s\n", formatter.Styles.OK(fmt.Sprintf("✓ Deleted %d archived playlists", len(deleted))))
}

// ArchiveHistory prints the stored archive records. It reads the database only and needs no authorization.
func (r *Runner) ArchiveHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		if errors.Is(err, shared.ErrStoreDisabled) {
			return fmt.Errorf("%w: enable [database] in the config to record history", err)
		}
		return err
	}

	records, err := r.store.List(map[string]any{
		"orig_playlist_id": cmd.String("playlist"),
		"year":             int(cmd.Int("year")),
		"week":             int(cmd.Int("week")),
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return r.writePlain("No archive records\n")
	}
	formatter.RecordTable(r.output, records)
	return nil
}
