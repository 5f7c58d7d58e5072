// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the internal application services, translating HTTP concerns to
// business operations: authentication, speaking sessions, the vocabulary
// deck, and the learner's feedback history.
package api
