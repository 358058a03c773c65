package upload

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ConfigRecord is an upload configuration as stored by a ConfigSource.
type ConfigRecord struct {
	UID   int64  `json:"uid" yaml:"uid"`
	Title string `json:"title" yaml:"title"`
	// UploadPath is absolute or relative to the storage root.
	UploadPath string `json:"upload_path" yaml:"upload_path"`
	// Extensions is a comma separated allow-list.
	Extensions        string    `json:"extensions" yaml:"extensions"`
	SessionRequired   bool      `json:"session_required" yaml:"session_required"`
	SubdirectoryField string    `json:"subdirectory_field" yaml:"subdirectory_field"`
	SaveSession       bool      `json:"save_session" yaml:"save_session"`
	ObscureDir        bool      `json:"obscure_dir" yaml:"obscure_dir"`
	CheckMime         bool      `json:"check_mime" yaml:"check_mime"`
	Hidden            bool      `json:"hidden" yaml:"hidden"`
	Deleted           bool      `json:"deleted" yaml:"deleted"`
	StartTime         time.Time `json:"starttime" yaml:"starttime"`
	EndTime           time.Time `json:"endtime" yaml:"endtime"`
}

// Active reports whether the record may be used at now: not hidden, not
// deleted and inside its optional start/end window.
func (c ConfigRecord) Active(now time.Time) bool {
	if c.Hidden || c.Deleted {
		return false
	}
	if !c.StartTime.IsZero() && c.StartTime.After(now) {
		return false
	}
	return c.EndTime.IsZero() || c.EndTime.After(now)
}

// ConfigSource fetches active configuration records.
// Get returns ErrConfigNotFound when no active record has the uid.
type ConfigSource interface {
	Get(ctx context.Context, uid int64) (ConfigRecord, error)
}

// Policy is the validated rule set for one upload request.
type Policy struct {
	ConfigUID             int64
	DestinationPath       string   `validate:"required,abspath"`
	AllowedExtensions     []string `validate:"min=1,dive,required"`
	SessionRequired       bool
	Subdirectory          Subdirectory
	ObscureDirectory      bool
	PersistPathsInSession bool
	CheckMimeType         bool
}

// Allows reports whether ext (lowercase, no dot) is in the allow-list.
func (p Policy) Allows(ext string) bool {
	return lo.Contains(p.AllowedExtensions, ext)
}

// PolicyResolver turns a configuration identifier into a Policy.
type PolicyResolver struct {
	source   ConfigSource
	roots    []string
	validate *validator.Validate
}

// NewPolicyResolver creates a resolver. Relative upload paths resolve
// against roots[0]; absolute ones must sit inside one of roots.
func NewPolicyResolver(source ConfigSource, roots ...string) *PolicyResolver {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("abspath", func(fl validator.FieldLevel) bool {
		return filepath.IsAbs(fl.Field().String())
	})

	cleaned := lo.FilterMap(roots, func(r string, _ int) (string, bool) {
		if r == "" {
			return "", false
		}
		abs, err := filepath.Abs(r)
		return abs, err == nil
	})

	return &PolicyResolver{source: source, roots: lo.Uniq(cleaned), validate: v}
}

// Resolve fetches, validates and returns the policy for uid. user is the
// session user, nil when anonymous.
func (r *PolicyResolver) Resolve(ctx context.Context, uid int64, user *UserRecord) (Policy, error) {
	if uid <= 0 {
		return Policy{}, configError(MsgNoConfigID, nil)
	}

	rec, err := r.source.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return Policy{}, configError(MsgConfigNotFound, err)
		}
		return Policy{}, configError(MsgInternal, err)
	}

	subdir, ok := ParseSubdirectory(rec.SubdirectoryField)
	if !ok {
		return Policy{}, configError(MsgConfigNotFound, errors.New("unknown subdirectory field "+rec.SubdirectoryField))
	}
	// No user, no user directory.
	if !rec.SessionRequired {
		subdir = SubdirNone
	}

	p := Policy{
		ConfigUID:             rec.UID,
		DestinationPath:       r.destination(rec.UploadPath),
		AllowedExtensions:     ParseExtensions(rec.Extensions),
		SessionRequired:       rec.SessionRequired,
		Subdirectory:          subdir,
		ObscureDirectory:      rec.ObscureDir,
		PersistPathsInSession: rec.SaveSession,
		CheckMimeType:         rec.CheckMime,
	}

	if err := r.validate.Struct(p); err != nil {
		return Policy{}, policyValidationError(err)
	}
	if !r.allowed(p.DestinationPath) {
		return Policy{}, configError(MsgInvalidDirectory, nil)
	}

	if p.SessionRequired && !user.Authenticated() {
		return Policy{}, newError(ErrAuthorization, CodeDefault, MsgSessionExpired, nil)
	}

	return p, nil
}

// destination resolves the configured path with trailing separators
// stripped. An empty path stays empty and fails validation.
func (r *PolicyResolver) destination(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		if len(r.roots) == 0 {
			return ""
		}
		path = filepath.Join(r.roots[0], filepath.FromSlash(path))
	}
	return filepath.Clean(path)
}

func (r *PolicyResolver) allowed(path string) bool {
	return lo.SomeBy(r.roots, func(root string) bool {
		return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
	})
}

// ParseExtensions splits a comma separated list into lowercase extensions
// without leading dots, dropping blanks and duplicates.
func ParseExtensions(list string) []string {
	exts := lo.Map(strings.Split(list, ","), func(e string, _ int) string {
		return strings.ToLower(strings.TrimLeft(strings.TrimSpace(e), "."))
	})
	return lo.Uniq(lo.Compact(exts))
}

func policyValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if strings.HasPrefix(fe.StructField(), "AllowedExtensions") {
				return configError(MsgMissingExtensions, err)
			}
		}
		return configError(MsgInvalidDirectory, err)
	}
	return configError(MsgConfigNotFound, err)
}
