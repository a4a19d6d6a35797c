// Package fsapi authenticates file-server API requests without server-side
// session state and scopes the authenticated identity to a filesystem root.
//
// Every request carries a user, a timestamp, a payload and a signature. The
// signature is
//
//	base64(HMAC-SHA256(secret, user + timestamp + base64(digest(payload))))
//
// where digest is MD5 for existing clients or SHA-256 when configured.
//
// # Key Components
//
//   - Fingerprint / Sign: payload digest and MAC computation
//   - RequestValidator: key lookup, constant-time comparison, freshness check
//   - RootResolver: StaticRoot (shared home root) or DynamicRoot (directory service)
//   - SecretStore / DirectoryInfo: injected collaborator interfaces
//
// # Example Usage
//
//	store := keybackend.NewMapSecretStore(map[string]string{"alice": "s3cr3t"})
//	validator, err := fsapi.NewRequestValidator(store, fsapi.ValidatorConfig{TTL: fsapi.DefaultTTL})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := validator.Validate(ctx, req); err != nil {
//	    // reply with a uniform error, audit fsapi.ReasonCode(err)
//	}
//
//	resolver, err := fsapi.NewRootResolver(fsapi.RootConfig{HomeRoot: "/srv/files"}, nil)
//	info, err := resolver.ResolveRoot(ctx, req.User)
//
// See the http package for the REST API, the audit package for event
// recording and the filesystem package for the scoped file operations.
package fsapi
