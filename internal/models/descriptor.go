package models

import (
	"fmt"
	"html"
	"regexp"
	"time"
)

// DescriptorTimeLayout is the layout of the archive timestamp (DD.MM.YYYY HH:MM:SS).
const DescriptorTimeLayout = "02.01.2006 15:04:05"

// UnknownOwner stands in for a missing owner display name.
const UnknownOwner = "n/a"

var descriptorPattern = regexp.MustCompile(
	`Archive Playlist: (\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2}) \| ` +
		`Orig\. Playlist Name: (.*?) \| ` +
		`Orig\. Playlist Owner: (.*?) \| ` +
		`Orig\. Playlist ID: (\S+) \| ` +
		`Orig\. Snapshot ID: (\S+)`,
)

// ArchiveDescriptor records where an archived playlist came from.
type ArchiveDescriptor struct {
	ArchivedAt         time.Time
	OriginalName       string
	OriginalOwner      string
	OriginalPlaylistID string
	OriginalSnapshotID string
}

// Encode renders d in the archive description format:
//
//	Archive Playlist: 02.01.2006 15:04:05 | Orig. Playlist Name: ... | Orig. Playlist Owner: ... | Orig. Playlist ID: ... | Orig. Snapshot ID: ...
func (d ArchiveDescriptor) Encode() string {
	owner := d.OriginalOwner
	if owner == "" {
		owner = UnknownOwner
	}
	return fmt.Sprintf(
		"Archive Playlist: %s | Orig. Playlist Name: %s | Orig. Playlist Owner: %s | Orig. Playlist ID: %s | Orig. Snapshot ID: %s",
		d.ArchivedAt.Format(DescriptorTimeLayout), d.OriginalName, owner, d.OriginalPlaylistID, d.OriginalSnapshotID,
	)
}

// ParseArchiveDescriptor reads a descriptor out of a playlist description.
//
// HTML entities are decoded first since the API escapes descriptions on read.
// A description that does not carry a complete descriptor yields [ErrNotArchived].
func ParseArchiveDescriptor(description string) (ArchiveDescriptor, error) {
	m := descriptorPattern.FindStringSubmatch(html.UnescapeString(description))
	if m == nil {
		return ArchiveDescriptor{}, ErrNotArchived
	}

	archivedAt, err := time.ParseInLocation(DescriptorTimeLayout, m[1], time.Local)
	if err != nil {
		return ArchiveDescriptor{}, fmt.Errorf("%w: %v", ErrNotArchived, err)
	}

	owner := m[3]
	if owner == UnknownOwner {
		owner = ""
	}

	return ArchiveDescriptor{
		ArchivedAt:         archivedAt,
		OriginalName:       m[2],
		OriginalOwner:      owner,
		OriginalPlaylistID: m[4],
		OriginalSnapshotID: m[5],
	}, nil
}

// IsArchiveDescription reports whether description carries an archive descriptor.
func IsArchiveDescription(description string) bool {
	_, err := ParseArchiveDescriptor(description)
	return err == nil
}

// ArchiveName builds "<prefix>-<ISO year>-<ISO week>-<suffix>" for t.
func ArchiveName(prefix, suffix string, t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%s-%d-%02d-%s", prefix, year, week, suffix)
}
