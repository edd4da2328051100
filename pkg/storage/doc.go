// Package storage writes run output into the blog's output directory.
//
// Images are stored under the last path segment of their URL and text posts
// as {id}.html. Same-named files are replaced, the last write wins. Every file
// goes through a temporary name and an atomic rename.
//
// Usage:
//
//	manager, err := storage.NewManager("staff")
//	name, err := storage.FileNameFromURL("https://x/img/ab12.jpg") // "ab12.jpg"
//	path, err := manager.SaveFile(bytes.NewReader(data), name)
package storage
