package storage

import "context"

// Mirror copies finished local files to secondary storage. Keys are slash
// separated paths relative to the local root.
type Mirror interface {
	Put(ctx context.Context, key, localPath string) error
	Delete(ctx context.Context, key string) error
}

// NopMirror discards every call.
type NopMirror struct{}

func (NopMirror) Put(context.Context, string, string) error { return nil }
func (NopMirror) Delete(context.Context, string) error      { return nil }
