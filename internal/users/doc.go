// Package users holds registered accounts for the lifetime of the process.
//
// [MemoryRepository] is the only store. Emails are matched case-insensitively
// after trimming, IDs are random UUIDs, and nothing survives a restart.
// Password hashing lives in package auth; this package only stores the hash.
package users
