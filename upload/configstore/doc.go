// Package configstore provides upload.ConfigSource and upload.UserStore
// implementations: a YAML file loaded into memory, the upload_configs and
// upload_users Postgres tables, and an LRU wrapper for config lookups.
// Passwords are stored as bcrypt hashes, see HashPassword.
package configstore
