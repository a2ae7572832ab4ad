// Package token issues and verifies JWT access/refresh pairs and tracks
// live refresh tokens in redis, keyed per user and token identifier so
// revocation never scans the whole key space.
package token
