// Package hash seals cached blocks with a CRC32-Castagnoli footer so that a
// torn or bit-rotted block file is detected and refetched instead of being
// returned as log content.
//
//	sealed := hash.Seal(block)
//	block, err := hash.Open(sealed) // hash.ErrChecksum on mismatch
package hash
