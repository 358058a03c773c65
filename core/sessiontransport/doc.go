// Package sessiontransport binds core/session to HTTP.
//
// Cookie stores Session.Token as a signed cookie. Load never fails on a
// missing or invalid cookie; it starts a new anonymous session with the
// client IP and User-Agent captured from the request. Store persists the
// session through the manager and rewrites the cookie, or clears it when the
// session was deleted.
//
//	store := redis.NewSessionStore[Data](client, "sess:")
//	mgr := session.NewManager[Data](store, 24*time.Hour, 5*time.Minute)
//	cookies, _ := cookie.New([]string{secret})
//	transport := sessiontransport.NewCookie(mgr, cookies, "__session", true)
//	r.Use(middleware.Session[*router.Context, Data](transport))
package sessiontransport
