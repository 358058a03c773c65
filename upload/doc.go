// Package upload receives files sent whole or in ordered chunks by
// browser uploaders (plupload protocol) and assembles them on local
// storage.
//
// One request runs through these stages:
//
//	PolicyResolver  configUid + session user -> Policy
//	FileValidator   extension allow-list and deny pattern
//	PathResolver    destination directory, reused across chunks
//	Assembler       append to <name>.part, rename on the last chunk
//	FileValidator   optional content sniffing of the finished file
//
// Receiver ties the stages together and Handler exposes it over HTTP,
// behind Recover and Session so that failures outside the pipeline keep
// the JSON-RPC shape. The session user comes from a UserSource; Login and
// Logout bind and release it.
// Progress of a chunked upload lives in SessionData, keyed by the client
// token or the filename. Chunks must arrive in order; a chunk that was
// already committed is acknowledged without writing.
//
// Every response is a JSON-RPC 2.0 object with HTTP status 200:
//
//	{"jsonrpc":"2.0","result":null,"id":"id"}
//	{"jsonrpc":"2.0","error":{"code":102,"message":"Failed to open output stream."},"id":""}
//
// Partial files left by clients that never finish are removed by Janitor.
package upload
