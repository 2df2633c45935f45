package rag

// Separator written between retrieved chunks in the assembled context.
const contextSeparator = "\n---\n"

// Marker sent in place of context when retrieval finds nothing, so the model
// can still answer conversationally instead of the engine refusing outright.
const noContextMarker = "No relevant context was found in the document for this question."

const systemPromptTemplate = `You are a helpful assistant that answers questions based ONLY on the provided context from a document.

IMPORTANT RULES:
1. ONLY use information from the provided context below
2. If the answer is not in the context, say "I cannot find that information in the provided document"
3. Be specific and cite relevant parts of the context when possible
4. If the context is insufficient, ask for clarification

Context from the document:
%s`
