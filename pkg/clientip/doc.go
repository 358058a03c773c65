// Package clientip extracts the client IP address from an HTTP request.
//
// Headers are checked in this order and the first valid address wins:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP
//  5. RemoteAddr
//
// Addresses are normalized with net.IP.String; 0.0.0.0 and unparsable values
// are skipped. When nothing validates, the raw RemoteAddr is returned.
package clientip
