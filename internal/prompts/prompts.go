// Package prompts centralizes every template sent to the language model.
// Keeping them in one place makes the generation behavior reviewable
// without chasing strings through the pipeline.
package prompts

import (
	"fmt"
	"strings"

	"research-backend/internal/domain"
)

// EndSignal is the literal phrase an editor uses to close an interview.
// Replies carrying this suffix end the session even when the structured
// end flag is missing.
const EndSignal = "Thank you so much for your help!"

// ExpertGreeting opens every interview from the expert's side.
func ExpertGreeting(topic string) string {
	return fmt.Sprintf("So you said you were writing an article on %s?", topic)
}

// TopicValidation asks the model to judge and, if needed, reformulate a raw
// topic. The reply must be a JSON object.
func TopicValidation(raw string) string {
	return fmt.Sprintf(`Evaluate whether the following is a suitable subject for a long-form reference article. Reject inputs that are gibberish, instructions, or too vague to research.

Respond with a JSON object: {"isValid": bool, "topic": "a cleaned-up title for the article", "message": "reason when invalid"}.

Input: %s`, raw)
}

// RelatedTopics asks for adjacent subjects used to broaden perspective
// generation. The reply must be a JSON array of strings.
func RelatedTopics(topic string) string {
	return fmt.Sprintf(`I'm writing a reference article on the topic below. Identify closely related subjects whose coverage would give insight into aspects commonly associated with this topic, or whose typical article structure is a useful model.

Respond with a JSON array of subject names only.

Topic of interest: %s`, topic)
}

// InitialOutline asks for a first high-level outline before any research
// has happened.
func InitialOutline(topic string) string {
	return fmt.Sprintf(`Draft a high-level outline for a reference article about "%s".

Respond with a JSON object: {"title": string, "sections": [{"title": string, "summary": string, "children": [{"title": string, "summary": string}]}]}. Keep it to the major sections a reader would expect; details come later.`, topic)
}

// PerspectivesSystem instructs the model to assemble a distinct editorial
// team. Hints carry related topics or the current outline's section titles.
func PerspectivesSystem(n int, hints []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You need to select a diverse and distinct group of editors who will work together to create a comprehensive article on the topic. Each one represents a different perspective, role, or affiliation related to the topic, with a description of what they will focus on. Select up to %d editors.`, n)
	if len(hints) > 0 {
		b.WriteString("\n\nRelated subjects for inspiration:\n")
		for _, h := range hints {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	b.WriteString("\nRespond with a JSON array: [{\"name\": string, \"role\": string, \"affiliation\": string, \"focus\": string}].")
	return b.String()
}

// PerspectivesUser is the user half of the persona request.
func PerspectivesUser(topic string) string {
	return fmt.Sprintf("Topic of interest: %s", topic)
}

// InterviewQuestionSystem puts the model in the editor's seat. The reply
// must be a JSON object so the end intent travels with the question.
func InterviewQuestionSystem(persona domain.Persona, outlineContext string) string {
	var b strings.Builder
	b.WriteString(`You are an experienced writer planning a specific reference article. Besides your identity as a writer, you have a particular focus when researching the topic. Now you are chatting with an expert to get information. Ask good questions to get more useful information.

Ask one question at a time and don't repeat what you have asked before. Your questions should be related to the topic you want to write. Be comprehensive and curious, gaining as much unique insight from the expert as possible.

Stay true to your specific perspective:

`)
	b.WriteString(persona.Description())
	if outlineContext != "" {
		b.WriteString("\n\nCurrent outline of the article:\n\n")
		b.WriteString(outlineContext)
	}
	fmt.Fprintf(&b, `

Respond with a JSON object: {"question": string, "wantsToEnd": bool}. When you have no more questions, set wantsToEnd to true and make the question "%s".`, EndSignal)
	return b.String()
}

// ExpertAnswerSystem instructs the expert to ground every claim in the
// provided sources and to cite them by number. A non-empty focus tells the
// expert what angle the writer is after.
func ExpertAnswerSystem(topic, focus string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert who can use information effectively. You are chatting with a writer who wants to write a reference article on a topic you know: %s. You have gathered related information and will now use it to form a response.`, topic)
	if focus != "" {
		fmt.Fprintf(&b, "\n\nThe writer's angle: %s", focus)
	}
	b.WriteString(`

Make your response as informative as possible and make sure every claim is supported by the gathered information. Cite sources inline as [n] using the numbering of the provided results, and do not invent sources.`)
	return b.String()
}

// ExpertAnswerUser packs the question together with the retrieved snippets.
func ExpertAnswerUser(question string, snippets string) string {
	return fmt.Sprintf("Gathered information:\n\n%s\n\nQuestion: %s", snippets, question)
}

// ExpertAnswerUngrounded is the fallback when retrieval produced nothing.
func ExpertAnswerUngrounded(topic, question string) string {
	return fmt.Sprintf(`You are an expert on %s. No reference material is available for the question below, so answer carefully from general knowledge, note uncertainty where it exists, and do not fabricate citations.

Question: %s`, topic, question)
}

// RefineOutlineSystem carries the topic and the outline being revised.
func RefineOutlineSystem(topic string, current string) string {
	return fmt.Sprintf(`You are a writer refining the outline of a reference article. You have gathered information from experts and search engines. Make sure the outline is comprehensive and specific, and keep sections that the conversations do not touch unchanged.

Topic you are writing about: %s

Old outline:

%s`, topic, current)
}

// RefineOutlineUser carries the interview material and asks for the revised
// outline in the same JSON shape the initial outline used.
func RefineOutlineUser(conversations string) string {
	return fmt.Sprintf(`Refine the outline based on your conversations with subject-matter experts:

Conversations:

%s

Respond with a JSON object: {"title": string, "sections": [{"title": string, "summary": string, "children": [{"title": string, "summary": string}]}]}.`, conversations)
}

// RenderOutline formats an outline as an indented text block for prompts.
func RenderOutline(o domain.Outline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", o.Title)
	renderSections(&b, o.Sections, 1)
	return b.String()
}

func renderSections(b *strings.Builder, sections []domain.Section, depth int) {
	for _, s := range sections {
		b.WriteString(strings.Repeat("#", depth+1))
		fmt.Fprintf(b, " %s\n", s.Title)
		if s.Summary != "" {
			fmt.Fprintf(b, "%s\n", s.Summary)
		}
		renderSections(b, s.Children, depth+1)
	}
}

// RenderTranscripts formats finished interviews for the refinement prompt.
func RenderTranscripts(transcripts []domain.Transcript) string {
	var b strings.Builder
	for i, tr := range transcripts {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Interview with %s (%s):\n", tr.Persona.Name, tr.Persona.Role)
		for _, turn := range tr.Turns {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
		}
	}
	return b.String()
}
