package configstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/uploadgate/integration/database/pg"
	"github.com/dmitrymomot/uploadgate/upload"
)

const selectActiveConfig = `
SELECT uid, title, upload_path, extensions, session_required, subdirectory_field,
       save_session, obscure_dir, check_mime, starttime, endtime
FROM upload_configs
WHERE uid = $1
  AND deleted = FALSE
  AND hidden = FALSE
  AND starttime <= $2
  AND (endtime = 0 OR endtime > $2)`

const selectUser = `
SELECT uid, pid, username, name, first_name, middle_name, last_name, lastlogin
FROM upload_users
WHERE id = $1
  AND disabled = FALSE`

const selectCredentials = `
SELECT id, password_hash
FROM upload_users
WHERE username = $1
  AND disabled = FALSE`

const touchLastLogin = `
UPDATE upload_users
SET lastlogin = $2, updated_at = now()
WHERE id = $1`

// Postgres reads records from the upload_configs table and users from
// upload_users.
type Postgres struct {
	conn func(ctx context.Context) pg.Querier
	now  func() time.Time
}

var (
	_ upload.ConfigSource = (*Postgres)(nil)
	_ upload.UserStore    = (*Postgres)(nil)
)

// NewPostgres uses the transaction in ctx when there is one, pool
// otherwise.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		conn: func(ctx context.Context) pg.Querier { return pg.Conn(ctx, pool) },
		now:  time.Now,
	}
}

func (p *Postgres) Get(ctx context.Context, uid int64) (upload.ConfigRecord, error) {
	var (
		rec        upload.ConfigRecord
		start, end int64
	)
	err := p.conn(ctx).QueryRow(ctx, selectActiveConfig, uid, p.now().Unix()).Scan(
		&rec.UID,
		&rec.Title,
		&rec.UploadPath,
		&rec.Extensions,
		&rec.SessionRequired,
		&rec.SubdirectoryField,
		&rec.SaveSession,
		&rec.ObscureDir,
		&rec.CheckMime,
		&start,
		&end,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return upload.ConfigRecord{}, upload.ErrConfigNotFound
		}
		return upload.ConfigRecord{}, errors.Join(pg.ErrFailedToQuery, err)
	}

	if start > 0 {
		rec.StartTime = time.Unix(start, 0)
	}
	if end > 0 {
		rec.EndTime = time.Unix(end, 0)
	}
	return rec, nil
}

func (p *Postgres) User(ctx context.Context, id uuid.UUID) (*upload.UserRecord, error) {
	var u upload.UserRecord
	err := p.conn(ctx).QueryRow(ctx, selectUser, id).Scan(
		&u.UID,
		&u.PID,
		&u.Username,
		&u.Name,
		&u.FirstName,
		&u.MiddleName,
		&u.LastName,
		&u.LastLogin,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, upload.ErrUserNotFound
		}
		return nil, errors.Join(pg.ErrFailedToQuery, err)
	}
	return &u, nil
}

// Authenticate checks the password against password_hash and records the
// login time.
func (p *Postgres) Authenticate(ctx context.Context, username, password string) (uuid.UUID, error) {
	var (
		id   uuid.UUID
		hash string
	)
	conn := p.conn(ctx)
	if err := conn.QueryRow(ctx, selectCredentials, username).Scan(&id, &hash); err != nil {
		if pg.IsNotFoundError(err) {
			return uuid.Nil, upload.ErrInvalidCredentials
		}
		return uuid.Nil, errors.Join(pg.ErrFailedToQuery, err)
	}
	if err := checkPassword(hash, password); err != nil {
		return uuid.Nil, err
	}
	if _, err := conn.Exec(ctx, touchLastLogin, id, p.now().Unix()); err != nil {
		return uuid.Nil, errors.Join(pg.ErrFailedToQuery, err)
	}
	return id, nil
}
