// Package dirinfo provides fsapi.DirectoryInfo implementations used by the
// dynamic root resolver.
//
// Client asks a remote directory service over HTTP:
//
//	GET {endpoint}/users/{user}/root
//	{"exists": true, "root": "/srv/homes"}
//
// Map answers from a fixed table and is meant for development and tests.
package dirinfo
