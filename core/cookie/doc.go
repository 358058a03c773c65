// Package cookie writes and verifies HMAC-signed HTTP cookies with secret
// rotation and a size guard. It carries the session token for the signed
// cookie session transport.
package cookie
