package upload

import (
	"maps"
	"slices"
	"time"
)

// ChunkSession tracks one chunked upload between requests.
type ChunkSession struct {
	Directory string `json:"directory"`
	Filename  string `json:"filename"`
	Total     int    `json:"total"`
	// NextChunk is the index the next request must carry.
	NextChunk int `json:"next_chunk"`
	// Offset is the committed size of the partial file.
	Offset    int64     `json:"offset"`
	Completed bool      `json:"completed,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionData is the upload state kept in the user session.
type SessionData struct {
	User *UserRecord `json:"user,omitempty"`
	// Uploads maps the upload key to its chunk progress.
	Uploads map[string]ChunkSession `json:"uploads,omitempty"`
	// Files lists finalized uploads when the policy asks for it.
	Files []string `json:"files,omitempty"`
}

// Clone returns a deep copy so callers can mutate without touching the
// value stored in the session.
func (d SessionData) Clone() SessionData {
	out := SessionData{
		Uploads: maps.Clone(d.Uploads),
		Files:   slices.Clone(d.Files),
	}
	if d.User != nil {
		u := *d.User
		out.User = &u
	}
	return out
}

func (d *SessionData) setUpload(key string, cs ChunkSession) {
	if d.Uploads == nil {
		d.Uploads = make(map[string]ChunkSession)
	}
	d.Uploads[key] = cs
}

func (d *SessionData) dropUpload(key string) bool {
	if _, ok := d.Uploads[key]; !ok {
		return false
	}
	delete(d.Uploads, key)
	return true
}

// pruneUploads drops chunk sessions untouched for longer than maxAge.
func (d *SessionData) pruneUploads(now time.Time, maxAge time.Duration) bool {
	pruned := false
	for key, cs := range d.Uploads {
		if now.Sub(cs.UpdatedAt) > maxAge {
			delete(d.Uploads, key)
			pruned = true
		}
	}
	return pruned
}
