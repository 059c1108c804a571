package redis

const (
	// KeyPrefixProject is the prefix for project keys
	KeyPrefixProject = "logbook:project:"
	// KeyPrefixEntry is the prefix for entry keys
	KeyPrefixEntry = "logbook:entry:"
	// KeyAllProjects is the key for the set of all project IDs
	KeyAllProjects = "logbook:projects:all"
	// KeyEntrySeq is the counter that orders entries sharing a millisecond
	KeyEntrySeq = "logbook:entries:seq"
)

// ProjectKey returns the Redis key for a project by ID
func ProjectKey(id string) string {
	return KeyPrefixProject + id
}

// ProjectEntriesKey returns the sorted set of a project's entry IDs,
// scored by creation time in milliseconds
func ProjectEntriesKey(projectID string) string {
	return KeyPrefixProject + projectID + ":entries"
}

// EntryKey returns the Redis key for an entry by ID
func EntryKey(id string) string {
	return KeyPrefixEntry + id
}

// AllProjectsKey returns the key for the set of all project IDs
func AllProjectsKey() string {
	return KeyAllProjects
}

func entryKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = EntryKey(id)
	}
	return keys
}
