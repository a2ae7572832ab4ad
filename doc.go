// Package authcore implements the credential and session lifecycle core
// of the talent marketplace platform: password authentication with
// brute-force lockout, JWT access/refresh issuance with redis-backed
// revocation, TOTP two-factor enrollment, and OAuth2 federation against
// GitHub, LinkedIn, and Google.
//
// The package is a library. Host applications construct a [Service]
// through the [Builder], supplying a [CredentialStore] for durable user
// records, a redis client for refresh-token revocation state, and an
// optional [Notifier] for out-of-band token delivery. HTTP routing,
// request schemas, and persistence mechanics stay on the host side; the
// Service returns typed errors that [KindOf] maps onto response classes.
package authcore
