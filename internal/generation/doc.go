// Package generation provides interfaces and types for the adaptive examiner
// policy and drill generation, backed by external LLM services. It abstracts
// the details of LLM API integration (Gemini), allowing the session pipeline
// to request next-step decisions and remediation drills without coupling to a
// specific provider. Every operation has a deterministic fallback so a
// degraded provider can never fail a submission.
package generation
