package knowledge

// LatestVersion is the docstring version tag aliased to the newest release
// by the ingestion pipeline. The assistant filters docstring search to it.
const LatestVersion = "latest"

// PageHit is one ranked result from the documentation pages collection.
type PageHit struct {
	PageURL string
	Chunk   string
}

// DocstringHit is one ranked result from the command docstrings collection.
type DocstringHit struct {
	Version string
	Command string
	Chunk   string
}

// PageChunk is one row to load into the pages collection.
type PageChunk struct {
	PageURL string
	Chunk   string
}

// DocstringChunk is one row to load into the docstrings collection.
type DocstringChunk struct {
	Version string
	Command string
	Chunk   string
}
