package domain

// StudyItem is one entry of a built study queue: a word plus its learning
// record and the new/review classification fixed at queue-build time.
//
// StudyItems are queue-scoped and never persisted. A failed ("Again") item is
// re-appended to the queue as the same pointer, so mutating the Progress of
// one occurrence is visible at every occurrence.
type StudyItem struct {
	Word      *Word
	Progress  *WordProgress
	IsNewWord bool
}
