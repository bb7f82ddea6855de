package ingest

import (
	"io/fs"
	"path/filepath"
	"regexp"

	apperrors "github.com/ryoyaiwata8-sudo/mail-review/errors"
	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// audioNamePattern matches call recordings named Mxxxxxx_Topic_Agent.mp3.
var audioNamePattern = regexp.MustCompile(`^(M\d+)_(.+)_(.+)\.mp3$`)

// loadAudio builds one CALL interaction from a recording's filename and
// modification time. The transcript body stays empty until the
// transcription layer fills it.
func (l *Loader) loadAudio(path string, entry fs.DirEntry) (*models.Interaction, error) {
	name := filepath.Base(path)
	m := audioNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, &apperrors.ParseError{File: name, Err: apperrors.ErrBadAudioName}
	}

	info, err := entry.Info()
	if err != nil {
		return nil, err
	}

	return &models.Interaction{
		ID:        m[1],
		Channel:   models.ChannelCall,
		Timestamp: info.ModTime(),
		Agent:     l.NormalizeAgent(m[3]),
		Subject:   m[2],
		FilePath:  path,
	}, nil
}
