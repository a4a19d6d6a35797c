// Package clientcli provides a client library for fsapi file servers.
//
// Every call is signed with the user's shared secret: the client sends the
// user, a Unix timestamp, the target directory as payload and
// base64(HMAC-SHA256(secret, user+timestamp+base64(digest(payload)))).
// The server must accept the timestamp within its TTL, so the local clock
// matters.
//
// # Basic Usage
//
//	cfg := &clientcli.Config{
//		Endpoint:  "http://localhost:5000",
//		User:      "alice",
//		SecretKey: "alice-secret",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.List(ctx, clientcli.ListOptions{Dir: "docs", Kind: clientcli.ListFiles})
//
// Directories are downloaded and uploaded as zip archives:
//
//	_, _, err = client.Download(ctx, clientcli.DownloadOptions{Dir: "docs", LocalPath: "docs.zip"})
//	res, err := client.Upload(ctx, clientcli.UploadOptions{LocalPath: "./site", Dir: "www"})
//
// # Profile Configuration
//
// Profiles live in ~/.fsapi/config.yaml:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	profile, err := configFile.GetProfile("production")
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Errors
//
// Non-200 answers are returned as *APIError. Use errors.Is with
// ErrUnauthorized, ErrNoRoot, ErrNotFound or ErrInvalidPath.
package clientcli
