// Package cover writes cover art to disk.
//
// [Save] streams an image body into a temporary file next to the
// destination and renames it into place only once the copy succeeded,
// so a partially written image never appears at destPath.
//
// Most callers should use jikan.Client.SaveCover, which fetches the
// image and calls Save.
package cover
