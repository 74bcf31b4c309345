// Package gemini implements the generation interfaces on top of Google's
// Gemini API through google.golang.org/genai.
//
// Prompts are embedded text templates. Responses are expected to be JSON,
// optionally wrapped in a markdown code fence, and are decoded into the
// domain types. Transient API failures are retried with exponential backoff
// and jitter; parse failures and safety blocks are not.
package gemini
