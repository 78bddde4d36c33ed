// Package deepseek implements the Provider interface for the DeepSeek
// Chat Completions API. It validates parameters against the DeepSeek
// bounds, including the deepseek-reasoner rule that temperature and top_p
// must be absent rather than defaulted, and normalizes responses into the
// unified ChatResult schema with reasoning content and function calls
// carried through untouched.
package deepseek
