// Package password implements argon2id hashing in PHC string format,
// password strength scoring, and reuse checks against retained
// historical hashes.
package password
