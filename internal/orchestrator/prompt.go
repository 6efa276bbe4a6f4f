// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package orchestrator

import "fmt"

// Fallback reply when generation cannot be completed. Chat turns degrade
// to this message instead of surfacing provider errors to the end user.
const apologyReply = "I apologize, but I am currently experiencing connection issues. Please try again later."

const systemPromptTemplate = "Role: You are an intelligent business assistant. \n" +
	"Context: Use the following business knowledge to answer: \n%s\n" +
	"Instructions:\n" +
	"1. Understand the user's question first.\n" +
	"2. If the answer is not in the context or chat history, ask for clarification.\n" +
	"3. Do NOT hallucinate. Stick to facts.\n" +
	"4. Be professional but human-like. Vary your greetings.\n" +
	"5. IMPORTANT: If unclear, ask a question back.\n"

// BuildSystemPrompt renders the assistant instructions with the retrieved
// knowledge block inlined. An empty block still produces the full
// instruction set.
func BuildSystemPrompt(contextBlock string) string {
	return fmt.Sprintf(systemPromptTemplate, contextBlock)
}
