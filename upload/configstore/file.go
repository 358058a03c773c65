package configstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/uploadgate/upload"
)

var (
	ErrReadFile      = errors.New("failed to read config file")
	ErrDecodeFile    = errors.New("failed to decode config file")
	ErrDuplicateUID  = errors.New("duplicate config uid")
	ErrInvalidUID    = errors.New("config uid must be positive")
	ErrInvalidUser   = errors.New("user needs an id, a username and a password hash")
	ErrDuplicateUser = errors.New("duplicate user")
)

type fileDocument struct {
	Configs []upload.ConfigRecord `yaml:"configs"`
	Users   []UserEntry           `yaml:"users"`
}

// LoadFile reads upload configurations and users from a YAML document:
//
//	configs:
//	  - uid: 7
//	    upload_path: photos
//	    extensions: png,jpg
//	    obscure_dir: true
//	users:
//	  - id: 5f0c1a64-8a53-4a43-9d0e-4c4bd7b3c0a1
//	    uid: 12
//	    username: alice
//	    password_hash: $2a$10$...
func LoadFile(path string) (*Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document in the LoadFile format.
func Parse(raw []byte) (*Memory, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrDecodeFile, err)
	}

	seen := make(map[int64]bool, len(doc.Configs))
	for _, rec := range doc.Configs {
		if rec.UID <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidUID, rec.UID)
		}
		if seen[rec.UID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateUID, rec.UID)
		}
		seen[rec.UID] = true
	}

	mem := NewMemory(doc.Configs...)
	ids := make(map[uuid.UUID]bool, len(doc.Users))
	names := make(map[string]bool, len(doc.Users))
	for _, u := range doc.Users {
		if u.ID == uuid.Nil || u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidUser, u.Username)
		}
		if ids[u.ID] || names[u.Username] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateUser, u.Username)
		}
		ids[u.ID], names[u.Username] = true, true
		mem.PutUser(u)
	}
	return mem, nil
}
