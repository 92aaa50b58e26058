// Package security confines file access for secret import and export.
//
// Values read from or written to files never leave the working directory:
// paths are validated with filepath.IsLocal and all I/O goes through an
// os.Root handle, so symlinks cannot redirect it elsewhere.
package security
