// Package publish implements the `publish` task. It only runs in the
// production environment. When HEAD carries no release tag it derives one
// from the latest tag (minor bumped, patch kept), creates it as an annotated
// tag and pushes it with `git push --follow-tags`. It then nudges the public
// checksum database and module proxy so the new version is fetchable, and
// confirms that by fetching it from a throwaway module.
//
// A failed push leaves the local tag in place; there is no rollback.
package publish
