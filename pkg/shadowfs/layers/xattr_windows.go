//go:build windows

package layers

import "errors"

// errXattrUnsupported is returned by listXattrNames/getXattr on platforms
// with no extended-attribute equivalent wired up; XattrTagExtractor treats
// it the same as "no attribute present," not a hard failure.
var errXattrUnsupported = errors.New("extended attributes are not supported on this platform")

func listXattrNames(path string) ([]string, error) {
	return nil, errXattrUnsupported
}

func getXattr(path, name string) ([]byte, error) {
	return nil, errXattrUnsupported
}

// isXattrMissing reports unsupported platforms the same as "not set", so
// XattrTagExtractor degrades to "no tags" on Windows instead of dropping
// every file.
func isXattrMissing(err error) bool {
	return err == errXattrUnsupported
}
