// Package destination persists finished artifacts where the user expects them.
//
// Two policies are supported. UserChosenTree writes under a directory the user
// picked (which must already exist and be writable), inside an optional
// subfolder that is created on demand. DefaultLocation writes under the
// platform downloads directory in a fixed AudioExtracted folder.
//
// Both use the same commit protocol: the bytes go to a hidden ".<name>.pending"
// entry which is renamed to its final name only once complete, so a partial
// artifact is never visible. Existing names are never overwritten; a numbered
// suffix is added instead. A lock file in the target directory serializes
// concurrent writers while a name is chosen and committed.
package destination
