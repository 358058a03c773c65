// Package session manages server-side sessions with generic payloads.
//
// A Manager wraps a Store (MemoryStore here, a Redis-backed store in
// integration/database/redis) and applies expiration, touch throttling and
// token rotation. Transports (see core/sessiontransport) move the token
// between the client and the manager.
//
//	mgr := session.NewManager[upload.SessionData](session.NewMemoryStore[upload.SessionData](), 24*time.Hour, 5*time.Minute)
package session
