// Package git checks whether files that receive plaintext secrets could be
// committed by accident. It shells out to the git binary; when git is not
// installed every check reports "not a repository".
package git
