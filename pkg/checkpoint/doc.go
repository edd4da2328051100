// Package checkpoint records how far a run got so that an interrupted or
// failed run can be resumed with --resume.
//
// One checkpoint is kept per blog listing (posts or likes) in a bbolt
// database. It stores the offset of the next page and the number of posts
// still requested. The pagination driver saves it after every completed
// page and deletes it once the run finishes or runs out of posts.
package checkpoint
