// Package totp implements RFC 6238 time-based one-time passwords for
// two-factor enrollment: secret generation, otpauth provisioning URIs,
// and skew-tolerant code verification.
package totp
