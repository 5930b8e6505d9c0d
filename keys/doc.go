// Package keys provides the private key type and the cryptographic services
// around it: password-based encryption of keys at rest, and signing.
//
// The credential package decides which key to use; this package only knows
// how to encode, encrypt, decrypt and sign.
package keys
