// Package retrieve reads grounding context out of the vector index.
//
// The Retriever issues a course-filtered similarity query and, when that
// yields nothing usable, a wider unfiltered probe re-filtered in-process.
// Callers receive the surviving chunk texts joined with blank lines, ready
// to be embedded into a prompt.
package retrieve
