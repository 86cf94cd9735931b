// Package cex is a unified engine for authenticated encryption, keyed
// hashing and deterministic random-bit generation, built over a small set
// of primitive permutations (AES, BLAKE2b, Keccak-f, Salsa20) and composed
// into GCM/GHASH, parallel tree hashing, counter-mode DRBGs and CPU-jitter
// entropy.
//
// The subpackages are independently usable:
//
//	blockcipher   the Block interface every mode in this module drives (AES)
//	ghash         the GF(2^128) universal hash GCM is built on
//	ctrmode       the counter-mode keystream driver GCM is built on
//	gcm           authenticated encryption state machine (GCM over any 16-byte block cipher)
//	treehash      shared fanout/leaf/root parameters for tree hashing
//	blake2bp      parallel BLAKE2b tree hashing (BLAKE2bp)
//	keccakf       the bare Keccak-f[1600] permutation
//	keccakp       sequential and parallel Keccak-512 tree hashing (Keccak-p)
//	salsa20       Salsa20 stream cipher with a parallel-range dispatcher
//	jitter        CPU timing-jitter entropy source
//	drbg          hash- and counter-based deterministic random bit generators
//	mac           HMAC and keyed-BLAKE2b message authentication
//	keycontainer  key/nonce/info tuples and their wire format
//	registry      enum-to-implementation dispatch tables
//	config        engine-wide tuning parameters
//	cexerr        the sentinel error kinds shared across every subsystem
package cex
