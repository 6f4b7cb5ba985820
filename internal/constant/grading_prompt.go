package constant

// Prompts for the grading model. Each one is filled with fmt.Sprintf and
// must answer with a single JSON object.
const (
	QueryClassificationPrompt = `Classify the user's latest message into exactly one category.

CATEGORIES:
- conversational: greetings, thanks, small talk, questions about the assistant itself
- knowledge_seeking: asks for facts or explanations that could be in the user's documents
- summarization: asks to summarize, outline or give an overview of documents
- comparison: asks to compare, contrast or find differences between things

Recent conversation:
%s

Latest message:
%s

Respond with JSON only: {"category": "<one of the categories>", "reason": "<short reason>"}`

	FaithfulnessPrompt = `You are grading an answer for faithfulness to its sources.

SOURCES:
%s

ANSWER:
%s

Score 1.0 when every claim in the answer is supported by the sources, 0.0 when the answer is mostly unsupported.
List each unsupported claim as an issue.
Respond with JSON only: {"score": <0.0-1.0>, "issues": ["..."]}`

	RelevancePrompt = `You are grading whether an answer addresses the question.

QUESTION:
%s

ANSWER:
%s

Score 1.0 when the answer directly addresses the question, 0.0 when it is off topic.
List each way the answer misses the question as an issue.
Respond with JSON only: {"score": <0.0-1.0>, "issues": ["..."]}`

	CompletenessPrompt = `You are grading whether an answer covers what its sources support.

QUESTION:
%s

SOURCES:
%s

ANSWER:
%s

Score 1.0 when the answer includes everything in the sources that is relevant to the question, 0.0 when it leaves out most of it.
List each relevant point that was left out as an issue.
Respond with JSON only: {"score": <0.0-1.0>, "issues": ["..."]}`
)
