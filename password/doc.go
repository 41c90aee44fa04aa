// Package password implements argon2id hashing and verification in PHC
// string format. Parameters travel inside the hash, so verification of
// hashes produced under older cost settings keeps working after a config
// change.
package password
