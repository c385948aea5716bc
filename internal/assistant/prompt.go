package assistant

import "strings"

// Reserved section names. Context sections use the task name that produced
// them (SectionPages, SectionDocstrings, SectionSummary).
const (
	SectionInstructions = "instructions"
	SectionRecent       = "recent_messages"
	SectionQuestion     = "question"
	SectionConversation = "conversation"

	SectionPages      = "documentation_pages"
	SectionDocstrings = "command_docstrings"
	SectionSummary    = "old_message_summary"
)

// Section is one named block of the prompt. A Section with empty Text is
// absent: it is omitted entirely, never rendered as an empty tag pair.
type Section struct {
	Name string
	Text string
}

// Assemble renders sections in the given order as HTML-like tagged blocks:
//
//	<name>
//	contents
//	</name>
//
// joined by single newlines, skipping empty sections. Pure and total:
// identical inputs always yield byte-identical output. The caller is
// responsible for ordering — fan-out results must be re-sorted by task
// submission order before assembly.
func Assemble(sections []Section) string {
	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Text == "" {
			continue
		}
		blocks = append(blocks, "<"+s.Name+">\n"+s.Text+"\n</"+s.Name+">")
	}
	return strings.Join(blocks, "\n")
}
