// Package oauth implements the authorization-code flow against GitHub,
// LinkedIn, and Google and normalizes each provider's profile payload
// into a common shape.
package oauth
